package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/approvaldesk/internal/theme"
)

// Command is a palette command understood by the root model.
type Command string

const (
	Refresh         Command = "refresh"
	Notifications   Command = "notifications"
	ApproveSelected Command = "approve-selected"
	RejectSelected  Command = "reject-selected"
	Preferences     Command = "preferences"
	Quit            Command = "quit"
)

// Commands lists the palette commands in display order.
var Commands = []Command{Refresh, Notifications, ApproveSelected, RejectSelected, Preferences, Quit}

var aliases = map[string]Command{
	"r":     Refresh,
	"n":     Notifications,
	"notif": Notifications,
	"prefs": Preferences,
	"q":     Quit,
}

// CommandMsg is emitted when the user executes a known command.
type CommandMsg Command

// UnknownMsg is emitted for input that matches no command.
type UnknownMsg string

// Parse resolves input to a command by full name or alias.
func Parse(input string) (Command, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	for _, c := range Commands {
		if string(c) == input {
			return c, true
		}
	}
	c, ok := aliases[input]
	return c, ok
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "ketik perintah..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		input := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if input == "" {
			return m, nil
		}
		if c, ok := Parse(input); ok {
			return m, func() tea.Msg { return CommandMsg(c) }
		}
		return m, func() tea.Msg { return UnknownMsg(input) }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette with matching suggestions.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	prefix := strings.ToLower(strings.TrimSpace(m.input.Value()))
	var matches []string
	for _, c := range Commands {
		if strings.HasPrefix(string(c), prefix) {
			matches = append(matches, string(c))
		}
	}
	suggestions := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(strings.Join(matches, "  "))

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Perintah"),
		m.input.View(),
		suggestions,
	)

	return theme.ModalStyle.
		Width(max(0, m.width-4)).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
