package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/approvaldesk/internal/keys"
	"github.com/nhle/approvaldesk/internal/theme"
)

// Model is the help overlay listing every key binding.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	h.ShowAll = true
	return Model{
		keys:   k,
		help:   h,
		width:  width,
		height: height,
	}
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	hint := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		MarginTop(1).
		Render("Perintah (:) refresh, notifications, approve-selected, reject-selected, preferences, quit")

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Pintasan Keyboard"),
		m.help.View(m.keys),
		hint,
	)

	return theme.ModalStyle.
		Width(max(0, m.width-4)).
		Height(max(0, m.height-4)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
