package feed

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/approvaldesk/internal/model"
)

// Op is the kind of row change carried by an Event.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
)

// Event is a single notification row change for the subscribed user.
type Event struct {
	Op           Op
	Notification model.Notification
}

// Feed delivers notification changes scoped to one user. The returned
// channel is closed when ctx is cancelled or the feed fails.
type Feed interface {
	Subscribe(ctx context.Context, userID string) (<-chan Event, error)
}

// eventBuffer is the capacity of subscription channels.
const eventBuffer = 64

// EventMsg is a tea.Msg carrying one change feed event.
type EventMsg struct {
	Event Event
}

// ClosedMsg is a tea.Msg sent when a subscription channel closes.
type ClosedMsg struct{}

// WaitForEvent returns a tea.Cmd that blocks until the next event on ch.
// Callers re-issue it after handling each EventMsg to keep listening.
func WaitForEvent(ch <-chan Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return ClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}
