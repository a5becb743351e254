package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/nhle/approvaldesk/internal/approval"
	"github.com/nhle/approvaldesk/internal/feed"
	"github.com/nhle/approvaldesk/internal/keys"
	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/notify"
	"github.com/nhle/approvaldesk/internal/ui"
	"github.com/nhle/approvaldesk/internal/ui/command"
	"github.com/nhle/approvaldesk/internal/ui/desk"
	"github.com/nhle/approvaldesk/internal/ui/detail"
	helpview "github.com/nhle/approvaldesk/internal/ui/help"
	"github.com/nhle/approvaldesk/internal/ui/notifpanel"
	"github.com/nhle/approvaldesk/internal/ui/prefsform"
	"github.com/nhle/approvaldesk/internal/ui/reviewform"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewReview
	ViewNotifications
	ViewPreferences
	ViewHelp
	ViewCommand
)

// Deps are the services the root model drives.
type Deps struct {
	Service     *approval.Service
	Sync        *notify.Synchronizer
	Preferences *notify.PreferenceStore

	// Feed is optional; without it the notification list only changes
	// through local mutations and reloads.
	Feed feed.Feed

	// ToastTTL defaults to four seconds.
	ToastTTL time.Duration
}

// Model is the root Bubble Tea model that manages view routing,
// layout, toasts and the notification feed.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	svc       *approval.Service
	sync      *notify.Synchronizer
	feed      feed.Feed
	prefStore *notify.PreferenceStore
	prefs     model.Preferences

	desk        desk.Model
	detail      detail.Model
	review      reviewform.Model
	panel       notifpanel.Model
	prefsForm   prefsform.Model
	helpView    helpview.Model
	commandView command.Model

	toaster    *ui.Toaster
	events     <-chan feed.Event
	cancelFeed context.CancelFunc
	ready      bool
}

// New creates the root application model.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()
	prefs := model.DefaultPreferences()

	return Model{
		currentView: ViewList,
		keys:        k,
		svc:         deps.Service,
		sync:        deps.Sync,
		feed:        deps.Feed,
		prefStore:   deps.Preferences,
		prefs:       prefs,
		desk:        desk.New(deps.Service, k, 80, 24),
		detail:      detail.New(k, 80, 24),
		review:      reviewform.New(80, 24),
		panel:       notifpanel.New(deps.Sync, k, prefs, 80, 24),
		prefsForm:   prefsform.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		toaster:     ui.NewToaster(deps.ToastTTL),
	}
}

// Init loads the pending reports, the notifications and the user's
// preferences, and subscribes to the change feed.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.desk.Init(),
		m.loadNotifications(),
		m.loadPreferences(),
		m.subscribe(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.desk.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.review.SetSize(w, h)
		m.panel.SetSize(w, h)
		m.prefsForm.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case ui.ToastMsg:
		return m, m.showToast(msg.Text, msg.IsError)

	case ui.ToastExpiredMsg:
		m.toaster.Expire(msg.Seq)
		return m, nil

	// Reports

	case desk.ReportsLoadedMsg:
		if msg.Err != nil {
			log.WithError(msg.Err).Error("loading pending reports")
		}
		var cmd tea.Cmd
		m.desk, cmd = m.desk.Update(msg)
		return m, cmd

	case desk.OpenDetailMsg:
		m.detail.SetReport(msg.Report)
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case desk.ReviewRequestMsg:
		cmd := m.startReview(msg.Action, msg.Report)
		return m, cmd

	case detail.ActionMsg:
		cmd := m.startReview(msg.Action, msg.Report)
		return m, cmd

	case desk.BulkRequestMsg:
		m.previousView = m.currentView
		m.currentView = ViewReview
		cmd := m.review.StartBulk(msg.Action, msg.IDs)
		return m, cmd

	case reviewform.SubmitMsg:
		m.currentView = ViewList
		return m, m.decide(msg.Action, msg.Report, msg.Text)

	case reviewform.BulkConfirmMsg:
		m.currentView = ViewList
		return m, m.bulk(msg.Action, msg.IDs)

	case reviewform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case decisionDoneMsg:
		cmd := m.handleDecision(msg)
		return m, cmd

	case bulkDoneMsg:
		cmd := m.handleBulk(msg)
		return m, cmd

	// Notifications

	case notificationsLoadedMsg:
		if msg.err != nil {
			log.WithError(msg.err).Error("loading notifications")
			return m, m.showToast(ui.ToastNotificationsFailed, true)
		}
		m.panel.Refresh()
		return m, nil

	case subscribedMsg:
		if msg.err != nil {
			log.WithError(msg.err).Warn("subscribing to notification feed")
			return m, nil
		}
		m.events = msg.events
		m.cancelFeed = msg.cancel
		// Reload so rows written between the first load and the feed's
		// baseline are not missed.
		return m, tea.Batch(feed.WaitForEvent(m.events), m.loadNotifications())

	case feed.EventMsg:
		cmds := []tea.Cmd{feed.WaitForEvent(m.events)}
		if m.sync.Apply(msg.Event) {
			n := msg.Event.Notification
			if m.prefs.Allows(n) {
				cmds = append(cmds, m.showToast(n.Title, n.Type == model.NotificationError))
			}
		}
		m.panel.Refresh()
		return m, tea.Batch(cmds...)

	case feed.ClosedMsg:
		log.Warn("notification feed closed")
		m.events = nil
		return m, nil

	case notifpanel.MutationDoneMsg:
		m.panel.Refresh()
		cmd := m.handleMutation(msg)
		return m, cmd

	case notifpanel.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case notifpanel.OpenPreferencesMsg:
		cmd := m.openPreferences()
		return m, cmd

	case prefsLoadedMsg:
		if msg.err != nil {
			log.WithError(msg.err).Warn("loading notification preferences")
			return m, nil
		}
		m.prefs = msg.prefs
		m.panel.SetPreferences(msg.prefs)
		return m, nil

	case prefsform.SavedMsg:
		m.prefs = msg.Preferences
		m.panel.SetPreferences(msg.Preferences)
		m.currentView = ViewNotifications
		return m, m.savePreferences(msg.Preferences)

	case prefsform.CancelMsg:
		m.currentView = ViewNotifications
		return m, nil

	case prefsSavedMsg:
		if msg.err != nil {
			log.WithError(msg.err).Error("saving notification preferences")
			return m, m.showToast(ui.ToastPreferencesFailed, true)
		}
		return m, m.showToast(ui.ToastPreferencesSaved, false)

	// Commands

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(command.Command(msg))
		return m, cmd

	case command.UnknownMsg:
		m.currentView = m.previousView
		return m, m.showToast(fmt.Sprintf("Perintah tidak dikenal: %s", string(msg)), true)

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work across views. Views that own
// a text input only see ctrl+c and esc here.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.stopFeed()
		return m, tea.Quit, true
	}

	switch m.currentView {
	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false

	case ViewHelp:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Help) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, true

	case ViewList:
		if m.desk.Searching() {
			return m, nil, false
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.stopFeed()
			return m, tea.Quit, true

		case key.Matches(msg, m.keys.Help):
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil, true

		case key.Matches(msg, m.keys.Command):
			m.previousView = m.currentView
			m.currentView = ViewCommand
			cmd := m.commandView.Focus()
			return m, cmd, true

		case key.Matches(msg, m.keys.Notifications):
			m.openNotifications()
			return m, nil, true
		}
	}

	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.desk, cmd = m.desk.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewReview:
		m.review, cmd = m.review.Update(msg)
	case ViewNotifications:
		m.panel, cmd = m.panel.Update(msg)
	case ViewPreferences:
		m.prefsForm, cmd = m.prefsForm.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Memuat..."
	}

	header := m.layout.RenderHeader("Approval Desk", m.unreadStatus())
	toast := m.toaster.Render(m.layout.ContentWidth())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, m.renderContent(), toast, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.desk.View()
	case ViewDetail:
		return m.detail.View()
	case ViewReview:
		return m.review.View()
	case ViewNotifications:
		return m.panel.View()
	case ViewPreferences:
		return m.prefsForm.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

func (m Model) unreadStatus() string {
	unread := m.sync.Unread()
	if unread == 0 {
		return "tidak ada notifikasi baru"
	}
	return fmt.Sprintf("🔔 %d belum dibaca", unread)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? tutup bantuan | esc kembali"
	case ViewCommand:
		return "enter jalankan | esc kembali"
	case ViewDetail:
		return "y setujui | x tolak | j/k gulir | esc kembali"
	case ViewReview, ViewPreferences:
		return "enter kirim | esc batal"
	case ViewNotifications:
		return "m tandai dibaca | M semua | d hapus | D hapus semua | p preferensi | esc kembali"
	default:
		hints := m.desk.FilterSummary()
		if m.svc.Processing() {
			hints += " | memproses..."
		}
		return hints + " | ? bantuan | q keluar"
	}
}

func (m *Model) openNotifications() {
	m.panel.Refresh()
	m.previousView = m.currentView
	m.currentView = ViewNotifications
}

func (m *Model) openPreferences() tea.Cmd {
	m.currentView = ViewPreferences
	return m.prefsForm.Start(m.prefs)
}

func (m *Model) startReview(action approval.Action, r model.Report) tea.Cmd {
	if m.svc.IsProcessing(r.ID) {
		return m.showToast(ui.ToastInFlight, true)
	}
	m.previousView = m.currentView
	m.currentView = ViewReview
	return m.review.StartSingle(action, r)
}

// showToast displays text and schedules its expiry.
func (m *Model) showToast(text string, isError bool) tea.Cmd {
	seq, ttl := m.toaster.Show(text, isError, time.Now())
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return ui.ToastExpiredMsg{Seq: seq}
	})
}

func (m *Model) stopFeed() {
	if m.cancelFeed != nil {
		m.cancelFeed()
		m.cancelFeed = nil
	}
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.Command) tea.Cmd {
	switch c {
	case command.Refresh:
		return tea.Batch(m.desk.LoadReports(), m.loadNotifications())
	case command.Notifications:
		m.openNotifications()
		return nil
	case command.ApproveSelected, command.RejectSelected:
		action := approval.ActionApprove
		if c == command.RejectSelected {
			action = approval.ActionReject
		}
		ids := m.desk.Selection().IDs()
		if len(ids) == 0 {
			return m.showToast(ui.ToastEmptySelection, true)
		}
		m.previousView = ViewList
		m.currentView = ViewReview
		return m.review.StartBulk(action, ids)
	case command.Preferences:
		m.previousView = ViewList
		return m.openPreferences()
	case command.Quit:
		m.stopFeed()
		return tea.Quit
	default:
		return nil
	}
}
