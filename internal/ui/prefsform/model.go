package prefsform

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/theme"
	"github.com/nhle/approvaldesk/internal/ui"
)

// SavedMsg is dispatched with the edited preferences.
type SavedMsg struct {
	Preferences model.Preferences
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

type formBindings struct {
	categories []model.Category
	priorities []model.Priority
}

// Model edits which notification categories and priorities are shown.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new preferences form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form from prefs.
func (m *Model) Start(prefs model.Preferences) tea.Cmd {
	m.fb.categories = nil
	for _, c := range model.Categories {
		if enabled, ok := prefs.Categories[c]; !ok || enabled {
			m.fb.categories = append(m.fb.categories, c)
		}
	}
	m.fb.priorities = nil
	for _, p := range model.Priorities {
		if enabled, ok := prefs.Priorities[p]; !ok || enabled {
			m.fb.priorities = append(m.fb.priorities, p)
		}
	}

	categoryOpts := make([]huh.Option[model.Category], len(model.Categories))
	for i, c := range model.Categories {
		categoryOpts[i] = huh.NewOption(categoryLabel(c), c)
	}
	priorityOpts := make([]huh.Option[model.Priority], len(model.Priorities))
	for i, p := range model.Priorities {
		priorityOpts[i] = huh.NewOption(priorityLabel(p), p)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[model.Category]().
				Title("Kategori").
				Options(categoryOpts...).
				Value(&m.fb.categories),
			huh.NewMultiSelect[model.Priority]().
				Title("Prioritas").
				Options(priorityOpts...).
				Value(&m.fb.priorities),
		),
	).WithWidth(min(max(m.width-4, 40), 100)).WithKeyMap(ui.FormKeyMap())
	return m.form.Init()
}

// Update handles messages for the preferences form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		prefs := m.Preferences()
		return m, func() tea.Msg { return SavedMsg{Preferences: prefs} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// Preferences builds the preferences from the current selections. Every
// known key is written so unticked switches persist as disabled.
func (m Model) Preferences() model.Preferences {
	prefs := model.Preferences{
		Categories: make(map[model.Category]bool, len(model.Categories)),
		Priorities: make(map[model.Priority]bool, len(model.Priorities)),
	}
	for _, c := range model.Categories {
		prefs.Categories[c] = false
	}
	for _, c := range m.fb.categories {
		prefs.Categories[c] = true
	}
	for _, p := range model.Priorities {
		prefs.Priorities[p] = false
	}
	for _, p := range m.fb.priorities {
		prefs.Priorities[p] = true
	}
	return prefs
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render("Preferensi Notifikasi") + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func categoryLabel(c model.Category) string {
	switch c {
	case model.CategoryUpload:
		return "Upload"
	case model.CategoryApproval:
		return "Persetujuan"
	case model.CategoryRejection:
		return "Penolakan"
	case model.CategoryKPI:
		return "KPI"
	case model.CategoryReport:
		return "Laporan"
	case model.CategoryDeadline:
		return "Deadline"
	default:
		return "Sistem"
	}
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return "Mendesak"
	case model.PriorityHigh:
		return "Tinggi"
	case model.PriorityMedium:
		return "Sedang"
	default:
		return "Rendah"
	}
}
