package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/approvaldesk/internal/model"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotPending is returned when a decision is applied to a report
	// that is no longer awaiting approval.
	ErrNotPending = errors.New("report is not pending approval")
)

// ReportFilter controls which reports ListReports returns.
type ReportFilter struct {
	Status *model.ReportStatus
	Limit  int
}

// ReportStore reads reports and records approval decisions.
type ReportStore interface {
	ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error)
	GetReport(ctx context.Context, id string) (*model.Report, error)
	CreateReport(ctx context.Context, r model.Report) (model.Report, error)
	ApproveReport(ctx context.Context, id, approverID, notes string, at time.Time) error
	RejectReport(ctx context.Context, id, rejectorID, reason string, at time.Time) error
}

// ProfileStore resolves report owners and notification recipients.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error)
	UpsertProfile(ctx context.Context, p model.Profile) error
}

// NotificationStore persists notifications for their recipients.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error)
	GetNotification(ctx context.Context, id string) (*model.Notification, error)
	ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) error
	DeleteNotification(ctx context.Context, id string) error
	DeleteAllNotifications(ctx context.Context, userID string) error
}

// Store is the full persistence interface backing the approval desk.
type Store interface {
	ReportStore
	ProfileStore
	NotificationStore
	Close() error
}
