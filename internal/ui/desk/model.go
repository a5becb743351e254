package desk

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/approvaldesk/internal/approval"
	"github.com/nhle/approvaldesk/internal/keys"
	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/theme"
	"github.com/nhle/approvaldesk/internal/ui"
)

// ReportsLoadedMsg carries the result of a pending list fetch.
type ReportsLoadedMsg struct {
	Reports []model.Report
	Err     error
}

// OpenDetailMsg asks the root model to show the detail modal.
type OpenDetailMsg struct {
	Report model.Report
}

// ReviewRequestMsg asks the root model to start a single decision on
// Report. Approvals collect optional notes, rejections a reason.
type ReviewRequestMsg struct {
	Action approval.Action
	Report model.Report
}

// BulkRequestMsg asks the root model to run a bulk decision over IDs.
type BulkRequestMsg struct {
	Action approval.Action
	IDs    []string
}

// Model is the approval desk list: the fetched pending reports, the
// client-side filtered view of them and the selection.
type Model struct {
	list        list.Model
	svc         *approval.Service
	keys        *keys.KeyMap
	reports     []model.Report
	visible     []model.Report
	filter      approval.Filter
	sbuOptions  []string
	sbuIndex    int
	selection   *approval.Selection
	searchMode  bool
	searchInput textinput.Model
	loading     bool
	width       int
	height      int
}

// New creates the desk list.
func New(svc *approval.Service, k *keys.KeyMap, width, height int) Model {
	selection := approval.NewSelection()
	delegate := itemDelegate{selection: selection, processing: svc.IsProcessing}

	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Laporan Menunggu Persetujuan"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "cari file atau pengirim..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		svc:         svc,
		keys:        k,
		filter:      approval.Filter{SBU: approval.AllSBU},
		sbuOptions:  []string{approval.AllSBU},
		selection:   selection,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the pending reports.
func (m Model) Init() tea.Cmd {
	return m.LoadReports()
}

// Update handles messages for the desk view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReportsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m, toast(ui.ToastLoadFailed, true)
		}
		m.reports = msg.Reports
		m.sbuOptions = approval.SBUOptions(m.reports)
		m.sbuIndex = indexOf(m.sbuOptions, m.filter.SBU)
		if m.sbuIndex < 0 {
			m.sbuIndex = 0
			m.filter.SBU = approval.AllSBU
		}
		cmd := m.applyFilter()
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode. The view
// is refiltered on every keystroke.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.searchInput.Blur()
		m.filter.Search = ""
		cmd := m.applyFilter()
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.filter.Search = m.searchInput.Value()
	filterCmd := m.applyFilter()
	return m, tea.Batch(cmd, filterCmd)
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		r, ok := m.Focused()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return OpenDetailMsg{Report: r} }

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.CycleSBU):
		m.sbuIndex = (m.sbuIndex + 1) % len(m.sbuOptions)
		m.filter.SBU = m.sbuOptions[m.sbuIndex]
		cmd := m.applyFilter()
		return m, cmd

	case key.Matches(msg, m.keys.Toggle):
		if r, ok := m.Focused(); ok {
			m.selection.Toggle(r.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.SelectAll):
		m.selection.SelectAll(m.visible, !m.selection.AllSelected(m.visible))
		return m, nil

	case key.Matches(msg, m.keys.Approve):
		return m, m.requestReview(approval.ActionApprove)

	case key.Matches(msg, m.keys.Reject):
		return m, m.requestReview(approval.ActionReject)

	case key.Matches(msg, m.keys.BulkApprove):
		return m, m.requestBulk(approval.ActionApprove)

	case key.Matches(msg, m.keys.BulkReject):
		return m, m.requestBulk(approval.ActionReject)

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.LoadReports()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) requestReview(action approval.Action) tea.Cmd {
	r, ok := m.Focused()
	if !ok {
		return nil
	}
	if m.svc.IsProcessing(r.ID) {
		return toast(ui.ToastInFlight, true)
	}
	return func() tea.Msg { return ReviewRequestMsg{Action: action, Report: r} }
}

func (m Model) requestBulk(action approval.Action) tea.Cmd {
	if m.selection.Len() == 0 {
		return toast(ui.ToastEmptySelection, true)
	}
	ids := m.selection.IDs()
	return func() tea.Msg { return BulkRequestMsg{Action: action, IDs: ids} }
}

// applyFilter recomputes the visible reports and refreshes the list.
func (m *Model) applyFilter() tea.Cmd {
	m.visible = m.filter.Apply(m.reports)
	items := make([]list.Item, len(m.visible))
	for i, r := range m.visible {
		items[i] = reportItem{report: r}
	}
	return m.list.SetItems(items)
}

// LoadReports returns a tea.Cmd that fetches the pending reports.
// Every call is an independent fetch.
func (m Model) LoadReports() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		reports, err := svc.ListPending(context.Background())
		return ReportsLoadedMsg{Reports: reports, Err: err}
	}
}

// Focused returns the report under the cursor.
func (m Model) Focused() (model.Report, bool) {
	item, ok := m.list.SelectedItem().(reportItem)
	if !ok {
		return model.Report{}, false
	}
	return item.report, true
}

// Visible returns the reports that pass the current filter.
func (m Model) Visible() []model.Report {
	return m.visible
}

// Selection returns the selected report IDs.
func (m Model) Selection() *approval.Selection {
	return m.selection
}

// ClearSelection empties the selection.
func (m *Model) ClearSelection() {
	m.selection.Clear()
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// FilterSummary describes the active filters for the status bar.
func (m Model) FilterSummary() string {
	summary := fmt.Sprintf("SBU: %s | %d/%d laporan | %d dipilih",
		m.filter.SBU, len(m.visible), len(m.reports), m.selection.Len())
	if m.filter.Search != "" {
		summary = fmt.Sprintf("cari: %q | %s", m.filter.Search, summary)
	}
	if m.loading {
		summary += " | memuat..."
	}
	return summary
}

// View renders the desk.
func (m Model) View() string {
	var header string
	if m.searchMode || m.filter.Search != "" {
		header = lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
	}

	body := m.list.View()
	if len(m.visible) == 0 {
		body = m.renderEmptyState()
	}

	if header == "" {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

// renderEmptyState shows guidance text when no reports are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if len(m.reports) > 0 {
		return style.Render("Tidak ada laporan yang cocok.\nUbah pencarian atau filter SBU.")
	}
	return style.Render("Tidak ada laporan yang menunggu persetujuan.\n\nTekan r untuk memuat ulang.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}

func toast(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return ui.ToastMsg{Text: text, IsError: isError} }
}

func indexOf(options []string, v string) int {
	for i, o := range options {
		if o == v {
			return i
		}
	}
	return -1
}
