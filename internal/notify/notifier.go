package notify

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/store"
)

// ReportActionLabel is the action label attached to report notifications.
const ReportActionLabel = "Lihat Laporan"

// ReportURL returns the in-app link to a report.
func ReportURL(reportID string) string {
	return "/reports/" + reportID
}

// Mailer delivers an e-mail copy of a notification.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Option adjusts a notification before it is stored.
type Option func(*model.Notification)

// WithReport links the notification to a report and points its action
// at the report.
func WithReport(reportID string) Option {
	return func(n *model.Notification) {
		if reportID == "" {
			return
		}
		id := reportID
		n.ReportID = &id
		n.ActionURL = ReportURL(reportID)
		n.ActionLabel = ReportActionLabel
	}
}

// WithAction sets a custom action link.
func WithAction(url, label string) Option {
	return func(n *model.Notification) {
		n.ActionURL = url
		n.ActionLabel = label
	}
}

// Notifier stores notifications for domain events. Items created here
// reach open panels through the change feed only.
type Notifier struct {
	notifications store.NotificationStore
	profiles      store.ProfileStore
	mailer        Mailer
	now           func() time.Time
}

// NewNotifier creates a Notifier. profiles and mailer may be nil; without
// both no e-mail copies are sent.
func NewNotifier(notifications store.NotificationStore, profiles store.ProfileStore, mailer Mailer) *Notifier {
	return &Notifier{
		notifications: notifications,
		profiles:      profiles,
		mailer:        mailer,
		now:           time.Now,
	}
}

// Create stores a notification with content c for userID.
func (n *Notifier) Create(ctx context.Context, userID string, c Content, opts ...Option) (model.Notification, error) {
	if userID == "" {
		return model.Notification{}, fmt.Errorf("creating %s notification: empty recipient", c.Category)
	}

	rec := model.Notification{
		UserID:    userID,
		Title:     c.Title,
		Message:   c.Message,
		Type:      c.Type,
		Category:  c.Category,
		Priority:  c.Priority,
		CreatedAt: n.now().UTC(),
	}
	for _, opt := range opts {
		opt(&rec)
	}

	created, err := n.notifications.CreateNotification(ctx, rec)
	if err != nil {
		return model.Notification{}, fmt.Errorf("creating %s notification: %w", c.Category, err)
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"category": created.Category,
		"type":     created.Type,
	}).Debug("notification created")

	return created, nil
}

// ReportApproved notifies the owner of r that it was approved.
func (n *Notifier) ReportApproved(ctx context.Context, r model.Report, notes string) (model.Notification, error) {
	c := ApprovalContent(r.FileName, notes)
	created, err := n.Create(ctx, r.UserID, c, WithReport(r.ID))
	if err != nil {
		return created, err
	}
	n.mailCopy(ctx, r.UserID, c)
	return created, nil
}

// ReportRejected notifies the owner of r that it was rejected.
func (n *Notifier) ReportRejected(ctx context.Context, r model.Report, reason string) (model.Notification, error) {
	c := RejectionContent(r.FileName, reason)
	created, err := n.Create(ctx, r.UserID, c, WithReport(r.ID))
	if err != nil {
		return created, err
	}
	n.mailCopy(ctx, r.UserID, c)
	return created, nil
}

// UploadResult notifies userID about an upload. reportID is empty when
// the upload produced no report.
func (n *Notifier) UploadResult(ctx context.Context, userID, reportID, fileName string, success bool, detail string) (model.Notification, error) {
	return n.Create(ctx, userID, UploadContent(fileName, success, detail), WithReport(reportID))
}

// KPIUpdated notifies userID about KPI progress.
func (n *Notifier) KPIUpdated(ctx context.Context, userID, name string, current, target float64) (model.Notification, error) {
	return n.Create(ctx, userID, KPIContent(name, current, target))
}

// DeadlineApproaching notifies userID that a report is due soon.
func (n *Notifier) DeadlineApproaching(ctx context.Context, userID, reportID, reportName string, deadline time.Time) (model.Notification, error) {
	return n.Create(ctx, userID, DeadlineContent(reportName, deadline, n.now()), WithReport(reportID))
}

// mailCopy e-mails c to userID when a mailer is configured and the
// profile has an address. Failures are logged only.
func (n *Notifier) mailCopy(ctx context.Context, userID string, c Content) {
	if n.mailer == nil || n.profiles == nil {
		return
	}

	logger := log.WithField("user_id", userID)

	p, err := n.profiles.GetProfile(ctx, userID)
	if err != nil {
		logger.WithError(err).Warn("resolving notification e-mail recipient")
		return
	}
	if p.Email == "" {
		return
	}

	if err := n.mailer.Send(ctx, p.Email, c.Title, c.Message); err != nil {
		logger.WithError(err).Warn("sending notification e-mail")
	}
}
