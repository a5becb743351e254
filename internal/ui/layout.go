package ui

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/approvaldesk/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	ToastHeight     int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions. The
// header, toast line and status bar are one row each.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		ToastHeight:     1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.ToastHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top header bar with a title and a right-hand
// status such as the unread counter.
func (l Layout) RenderHeader(title string, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(status)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view from the header, the
// content area, the toast line and the status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	toast string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		toast,
		statusBar,
	)
}

// Toast is a transient message shown above the status bar.
type Toast struct {
	Text    string
	IsError bool
	Expires time.Time
	seq     int
}

// ToastExpiredMsg asks the root model to clear the toast with Seq.
type ToastExpiredMsg struct {
	Seq int
}

// Toaster hands out toasts with increasing sequence numbers so that an
// expiry only clears the toast it was scheduled for.
type Toaster struct {
	current Toast
	seq     int
	ttl     time.Duration
}

// NewToaster creates a toaster whose messages live for ttl.
func NewToaster(ttl time.Duration) *Toaster {
	if ttl <= 0 {
		ttl = 4 * time.Second
	}
	return &Toaster{ttl: ttl}
}

// Show replaces the current toast and returns its sequence number and
// lifetime.
func (t *Toaster) Show(text string, isError bool, now time.Time) (int, time.Duration) {
	t.seq++
	t.current = Toast{Text: text, IsError: isError, Expires: now.Add(t.ttl), seq: t.seq}
	return t.seq, t.ttl
}

// Expire clears the toast if seq is still the current one.
func (t *Toaster) Expire(seq int) {
	if t.current.seq == seq {
		t.current = Toast{}
	}
}

// Current returns the visible toast text and whether it is an error.
func (t *Toaster) Current() (string, bool) {
	return t.current.Text, t.current.IsError
}

// Render renders the toast line for width.
func (t *Toaster) Render(width int) string {
	text, isError := t.Current()
	return theme.ToastStyle(isError).MaxWidth(width).Render(text)
}
