package reviewform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/approvaldesk/internal/approval"
	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/theme"
	"github.com/nhle/approvaldesk/internal/ui"
)

// SubmitMsg is dispatched when a single decision form is completed.
type SubmitMsg struct {
	Action approval.Action
	Report model.Report
	// Text holds the approval notes or the rejection reason.
	Text string
}

// BulkConfirmMsg is dispatched when a bulk decision is confirmed.
type BulkConfirmMsg struct {
	Action approval.Action
	IDs    []string
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	text    string
	confirm bool
}

// Model is the Bubble Tea model for the approve/reject forms.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	action approval.Action
	report model.Report
	ids    []string
	bulk   bool
	width  int
	height int
}

// New creates a new review form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartSingle initializes the form for one report. Approvals ask for
// optional notes, rejections for a required reason.
func (m *Model) StartSingle(action approval.Action, r model.Report) tea.Cmd {
	m.action = action
	m.report = r
	m.ids = nil
	m.bulk = false
	m.fb.text = ""
	m.fb.confirm = false

	var field huh.Field
	if action == approval.ActionReject {
		field = huh.NewText().
			Title("Alasan Penolakan").
			Placeholder("Jelaskan alasan penolakan...").
			Value(&m.fb.text).
			Validate(validateReason)
	} else {
		field = huh.NewText().
			Title("Catatan").
			Placeholder("Catatan persetujuan (opsional)...").
			Value(&m.fb.text)
	}

	m.form = huh.NewForm(huh.NewGroup(field)).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight()).
		WithKeyMap(ui.FormKeyMap())
	return m.form.Init()
}

// StartBulk initializes a confirmation for a bulk decision over ids.
func (m *Model) StartBulk(action approval.Action, ids []string) tea.Cmd {
	m.action = action
	m.report = model.Report{}
	m.ids = ids
	m.bulk = true
	m.fb.text = ""
	m.fb.confirm = false

	verb := "menyetujui"
	if action == approval.ActionReject {
		verb = "menolak"
	}
	confirm := huh.NewConfirm().
		Title(fmt.Sprintf("Yakin %s %d laporan?", verb, len(ids))).
		Affirmative("Ya").
		Negative("Batal").
		Value(&m.fb.confirm)
	if action == approval.ActionReject {
		confirm = confirm.Description("Alasan: " + approval.BulkRejectReason)
	}

	m.form = huh.NewForm(huh.NewGroup(confirm)).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight()).
		WithKeyMap(ui.FormKeyMap())
	return m.form.Init()
}

// Update handles messages for the review form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the review form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	var titleText string
	switch {
	case m.bulk && m.action == approval.ActionReject:
		titleText = "Tolak Massal"
	case m.bulk:
		titleText = "Setujui Massal"
	case m.action == approval.ActionReject:
		titleText = "Tolak Laporan"
	default:
		titleText = "Setujui Laporan"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n"
	if !m.bulk {
		content += lipgloss.NewStyle().Foreground(theme.ColorGray).
			Render(fmt.Sprintf("%s · %s", m.report.FileName, m.report.SubmitterName)) + "\n\n"
	}
	content += m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) handleSubmit() tea.Cmd {
	if m.bulk {
		if !m.fb.confirm {
			return func() tea.Msg { return CancelMsg{} }
		}
		msg := BulkConfirmMsg{Action: m.action, IDs: m.ids}
		return func() tea.Msg { return msg }
	}
	msg := SubmitMsg{Action: m.action, Report: m.report, Text: m.fb.text}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 8 {
		h = 8
	}
	return h
}

func validateReason(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("alasan penolakan wajib diisi")
	}
	return nil
}
