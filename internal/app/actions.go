package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/nhle/approvaldesk/internal/approval"
	"github.com/nhle/approvaldesk/internal/feed"
	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/ui"
	"github.com/nhle/approvaldesk/internal/ui/notifpanel"
)

// decisionDoneMsg carries the outcome of a single approve or reject.
type decisionDoneMsg struct {
	action approval.Action
	report model.Report
	err    error
}

// bulkDoneMsg carries the outcome of a bulk run.
type bulkDoneMsg struct {
	result approval.BulkResult
	err    error
}

type notificationsLoadedMsg struct{ err error }

type subscribedMsg struct {
	events <-chan feed.Event
	cancel context.CancelFunc
	err    error
}

type prefsLoadedMsg struct {
	prefs model.Preferences
	err   error
}

type prefsSavedMsg struct{ err error }

// decide returns a command that approves or rejects r.
func (m Model) decide(action approval.Action, r model.Report, text string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		if action == approval.ActionReject {
			err = svc.Reject(ctx, r.ID, text)
		} else {
			err = svc.Approve(ctx, r.ID, text)
		}
		return decisionDoneMsg{action: action, report: r, err: err}
	}
}

// handleDecision toasts the outcome and refetches the pending list on
// success. The report leaves the desk only once that fetch lands.
func (m *Model) handleDecision(msg decisionDoneMsg) tea.Cmd {
	if msg.err != nil {
		log.WithError(msg.err).WithFields(log.Fields{
			"report_id": msg.report.ID,
			"action":    msg.action,
		}).Error("review decision failed")

		switch {
		case errors.Is(msg.err, approval.ErrInFlight):
			return m.showToast(ui.ToastInFlight, true)
		case errors.Is(msg.err, approval.ErrReasonRequired):
			return m.showToast(ui.ToastReasonRequired, true)
		case msg.action == approval.ActionReject:
			return m.showToast(ui.ToastRejectFailed, true)
		default:
			return m.showToast(ui.ToastApproveFailed, true)
		}
	}

	text := ui.ToastApproved
	if msg.action == approval.ActionReject {
		text = ui.ToastRejected
	}
	return tea.Batch(m.showToast(text, false), m.desk.LoadReports())
}

// bulk returns a command that runs action over ids.
func (m Model) bulk(action approval.Action, ids []string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		result, err := svc.Bulk(context.Background(), ids, action)
		return bulkDoneMsg{result: result, err: err}
	}
}

// handleBulk clears the selection whatever the outcome, toasts the
// success count and refetches.
func (m *Model) handleBulk(msg bulkDoneMsg) tea.Cmd {
	if errors.Is(msg.err, approval.ErrEmptySelection) {
		return m.showToast(ui.ToastEmptySelection, true)
	}

	m.desk.ClearSelection()
	if msg.err != nil {
		log.WithError(msg.err).Error("bulk run failed")
	}

	format := ui.ToastBulkApproved
	if msg.result.Action == approval.ActionReject {
		format = ui.ToastBulkRejected
	}
	return tea.Batch(
		m.showToast(fmt.Sprintf(format, msg.result.Succeeded), len(msg.result.Failed) > 0),
		m.desk.LoadReports(),
	)
}

// handleMutation toasts the outcome of a notification panel mutation.
func (m *Model) handleMutation(msg notifpanel.MutationDoneMsg) tea.Cmd {
	if msg.Err != nil {
		log.WithError(msg.Err).Error("notification mutation failed")
		return m.showToast(ui.ToastNotificationFailed, true)
	}

	switch msg.Mutation {
	case notifpanel.MutationMarkAllRead:
		return m.showToast(ui.ToastAllRead, false)
	case notifpanel.MutationDelete:
		return m.showToast(ui.ToastDeleted, false)
	case notifpanel.MutationDeleteAll:
		return m.showToast(ui.ToastAllDeleted, false)
	}
	return nil
}

func (m Model) loadNotifications() tea.Cmd {
	sync := m.sync
	return func() tea.Msg {
		return notificationsLoadedMsg{err: sync.Load(context.Background())}
	}
}

func (m Model) loadPreferences() tea.Cmd {
	if m.prefStore == nil {
		return nil
	}
	prefStore, userID := m.prefStore, m.sync.UserID()
	return func() tea.Msg {
		prefs, err := prefStore.Load(userID)
		return prefsLoadedMsg{prefs: prefs, err: err}
	}
}

func (m Model) savePreferences(prefs model.Preferences) tea.Cmd {
	if m.prefStore == nil {
		return nil
	}
	prefStore, userID := m.prefStore, m.sync.UserID()
	return func() tea.Msg {
		return prefsSavedMsg{err: prefStore.Save(userID, prefs)}
	}
}

// subscribe opens the change feed for the signed-in user. The
// subscription lives until the program quits.
func (m Model) subscribe() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	f, userID := m.feed, m.sync.UserID()
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		events, err := f.Subscribe(ctx, userID)
		if err != nil {
			cancel()
			return subscribedMsg{err: err}
		}
		return subscribedMsg{events: events, cancel: cancel}
	}
}
