package notifpanel

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/approvaldesk/internal/keys"
	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/notify"
	"github.com/nhle/approvaldesk/internal/theme"
	"github.com/nhle/approvaldesk/internal/ui"
)

// CloseMsg signals the parent to close the panel.
type CloseMsg struct{}

// OpenPreferencesMsg signals the parent to show the preferences form.
type OpenPreferencesMsg struct{}

// Mutation identifies a notification mutation started from the panel.
type Mutation int

const (
	MutationMarkRead Mutation = iota
	MutationMarkAllRead
	MutationDelete
	MutationDeleteAll
)

// MutationDoneMsg reports the outcome of a mutation.
type MutationDoneMsg struct {
	Mutation Mutation
	Err      error
}

type panelMode int

const (
	modeList panelMode = iota
	modeConfirmDeleteAll
)

type formBindings struct {
	confirm bool
}

// Model lists the notifications allowed by the user's preferences.
type Model struct {
	mode        panelMode
	sync        *notify.Synchronizer
	keys        *keys.KeyMap
	prefs       model.Preferences
	items       []model.Notification
	selectedIdx int
	confirmForm *huh.Form
	fb          *formBindings
	width       int
	height      int
}

// New creates a notification panel over sync.
func New(sync *notify.Synchronizer, k *keys.KeyMap, prefs model.Preferences, width, height int) Model {
	m := Model{
		mode:   modeList,
		sync:   sync,
		keys:   k,
		prefs:  prefs,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
	m.Refresh()
	return m
}

// Refresh re-reads the synchronizer's items.
func (m *Model) Refresh() {
	m.items = notify.Visible(m.sync.Items(), m.prefs)
	if m.selectedIdx >= len(m.items) {
		m.selectedIdx = max(0, len(m.items)-1)
	}
}

// SetPreferences replaces the filter preferences.
func (m *Model) SetPreferences(p model.Preferences) {
	m.prefs = p
	m.Refresh()
}

// Items returns the notifications currently shown.
func (m Model) Items() []model.Notification {
	return m.items
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode == modeConfirmDeleteAll {
		return m.updateConfirm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(keyMsg, m.keys.Down):
		if len(m.items) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.items)
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if len(m.items) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.items) - 1
			}
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.MarkRead):
		n, ok := m.focused()
		if !ok || n.Read {
			return m, nil
		}
		return m, m.mutate(MutationMarkRead, func(ctx context.Context) error {
			return m.sync.MarkRead(ctx, n.ID)
		})

	case key.Matches(keyMsg, m.keys.MarkAllRead):
		return m, m.mutate(MutationMarkAllRead, m.sync.MarkAllRead)

	case key.Matches(keyMsg, m.keys.Delete):
		n, ok := m.focused()
		if !ok {
			return m, nil
		}
		return m, m.mutate(MutationDelete, func(ctx context.Context) error {
			return m.sync.Delete(ctx, n.ID)
		})

	case key.Matches(keyMsg, m.keys.DeleteAll):
		if len(m.sync.Items()) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDeleteAll
		cmd := m.confirmForm.Init()
		return m, cmd

	case key.Matches(keyMsg, m.keys.Preferences):
		return m, func() tea.Msg { return OpenPreferencesMsg{} }
	}
	return m, nil
}

func (m Model) focused() (model.Notification, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.items) {
		return model.Notification{}, false
	}
	return m.items[m.selectedIdx], true
}

func (m Model) mutate(kind Mutation, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return MutationDoneMsg{Mutation: kind, Err: fn(context.Background())}
	}
}

func (m Model) buildConfirmForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Hapus semua notifikasi?").
				Description("Notifikasi yang dihapus tidak dapat dikembalikan.").
				Affirmative("Ya, hapus").
				Negative("Batal").
				Value(&m.fb.confirm),
		),
	).WithWidth(min(max(m.width-4, 40), 100)).WithKeyMap(ui.FormKeyMap())
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		m.mode = modeList
		if m.fb.confirm {
			return m, m.mutate(MutationDeleteAll, m.sync.DeleteAll)
		}
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the panel.
func (m Model) View() string {
	if m.mode == modeConfirmDeleteAll && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render(fmt.Sprintf("Notifikasi (%d belum dibaca)", m.sync.Unread())))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("Tidak ada notifikasi."))
	} else {
		for i, n := range m.visibleWindow() {
			b.WriteString(m.renderItem(n, i+m.windowStart() == m.selectedIdx))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"enter/m tandai dibaca | M tandai semua | d hapus | D hapus semua | p preferensi | esc kembali",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderItem(n model.Notification, selected bool) string {
	marker := "  "
	if !n.Read {
		marker = "● "
	}
	title := theme.NotificationTypeStyle(string(n.Type)).Render(marker + n.Title)
	meta := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		fmt.Sprintf("  %s · %s", humanize.Time(n.CreatedAt), n.Category),
	)
	priority := theme.PriorityStyle(string(n.Priority)).Render(" [" + string(n.Priority) + "]")
	line := title + priority + meta + "\n    " + n.Message

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// Each item takes two lines; the window keeps the cursor on screen.
func (m Model) pageSize() int {
	return max(1, (m.height-8)/2)
}

func (m Model) windowStart() int {
	size := m.pageSize()
	if m.selectedIdx < size {
		return 0
	}
	return m.selectedIdx - size + 1
}

func (m Model) visibleWindow() []model.Notification {
	start := m.windowStart()
	end := min(len(m.items), start+m.pageSize())
	return m.items[start:end]
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
