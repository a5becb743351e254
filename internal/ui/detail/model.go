package detail

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/approvaldesk/internal/approval"
	"github.com/nhle/approvaldesk/internal/keys"
	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/theme"
)

// BackMsg signals the parent to close the detail modal.
type BackMsg struct{}

// ActionMsg signals the parent to start a decision on the shown report.
type ActionMsg struct {
	Action approval.Action
	Report model.Report
}

// Model is the report detail modal.
type Model struct {
	report   *model.Report
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Approve):
			return m, m.action(approval.ActionApprove)

		case key.Matches(msg, m.keys.Reject):
			return m, m.action(approval.ActionReject)
		}
	}

	// j/k, up/down, pgup/pgdn scroll the viewport
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(a approval.Action) tea.Cmd {
	if m.report == nil || !m.report.IsPending() {
		return nil
	}
	r := *m.report
	return func() tea.Msg { return ActionMsg{Action: a, Report: r} }
}

// View renders the detail modal.
func (m Model) View() string {
	if m.report == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Tidak ada laporan dipilih")
	}
	return theme.ModalStyle.Render(m.viewport.View())
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.report == nil {
		return ""
	}
	r := m.report
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(r.FileName))

	statusBadge := theme.StatusStyle(string(r.Status)).Render(statusName(r.Status))
	sections = append(sections, statusBadge, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(14)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, metaStyle.Render(label+":")+valStyle.Render(value))
	}

	row("Pengirim", r.SubmitterName)
	row("SBU", r.SBUName)
	row("Indikator", r.IndicatorType)
	row("Ukuran", r.FileSizeDisplay())
	row("Dikirim", r.SubmittedAtDisplay())
	if r.Score > 0 {
		row("Skor", humanize.FtoaWithDigits(r.Score, 2))
	}

	separator := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(0, min(m.width-8, 80))))
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	sections = append(sections, "", separator, "", headerStyle.Render("Validasi"))
	validation := r.Validation.Status
	if validation == "" {
		validation = "-"
	}
	sections = append(sections, validation)
	for _, msg := range r.Validation.Messages {
		sections = append(sections, "  • "+msg)
	}

	if len(r.MediaBreakdown) > 0 {
		sections = append(sections, "", headerStyle.Render("Rincian Media"))
		media := make([]string, 0, len(r.MediaBreakdown))
		for name := range r.MediaBreakdown {
			media = append(media, name)
		}
		sort.Strings(media)
		for _, name := range media {
			sections = append(sections, fmt.Sprintf("  %-20s %s", name, humanize.Comma(int64(r.MediaBreakdown[name]))))
		}
	}

	switch r.Status {
	case model.StatusApproved:
		sections = append(sections, "", separator, "", headerStyle.Render("Catatan Persetujuan"))
		sections = append(sections, orNone(r.ApprovalNotes))
		if r.ApprovedAt != nil {
			row("Disetujui", model.FormatLocalTime(*r.ApprovedAt))
		}
	case model.StatusRejected:
		sections = append(sections, "", separator, "", headerStyle.Render("Alasan Penolakan"))
		sections = append(sections, orNone(r.RejectionReason))
		if r.RejectedAt != nil {
			row("Ditolak", model.FormatLocalTime(*r.RejectedAt))
		}
	default:
		sections = append(sections, "", lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render("y setujui · x tolak · esc kembali"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetReport updates the report being displayed and re-renders the content.
func (m *Model) SetReport(r model.Report) {
	m.report = &r
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Report returns the displayed report.
func (m Model) Report() (model.Report, bool) {
	if m.report == nil {
		return model.Report{}, false
	}
	return *m.report, true
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	m.viewport.Height = height - 4
	if m.report != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

func statusName(s model.ReportStatus) string {
	switch s {
	case model.StatusPendingApproval:
		return "Menunggu Persetujuan"
	case model.StatusApproved:
		return "Disetujui"
	case model.StatusRejected:
		return "Ditolak"
	default:
		return string(s)
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("Tidak ada")
	}
	return s
}
