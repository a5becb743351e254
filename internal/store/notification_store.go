package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/approvaldesk/internal/model"
)

const notificationColumns = `
	id, user_id, title, message, type, category, priority,
	is_read, created_at, read_at, action_url, action_label, report_id`

// notificationRow mirrors notificationColumns for sqlx scanning. Optional
// columns are nullable so rows written by other clients still scan.
type notificationRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Title       string         `db:"title"`
	Message     string         `db:"message"`
	Type        string         `db:"type"`
	Category    sql.NullString `db:"category"`
	Priority    sql.NullString `db:"priority"`
	IsRead      bool           `db:"is_read"`
	CreatedAt   time.Time      `db:"created_at"`
	ReadAt      sql.NullTime   `db:"read_at"`
	ActionURL   sql.NullString `db:"action_url"`
	ActionLabel sql.NullString `db:"action_label"`
	ReportID    sql.NullString `db:"report_id"`
}

func (row notificationRow) toModel() model.Notification {
	return model.Notification{
		ID:          row.ID,
		UserID:      row.UserID,
		Title:       row.Title,
		Message:     row.Message,
		Type:        model.NotificationType(row.Type),
		Category:    model.Category(row.Category.String),
		Priority:    model.Priority(row.Priority.String),
		Read:        row.IsRead,
		CreatedAt:   row.CreatedAt,
		ReadAt:      nullTime(row.ReadAt),
		ActionURL:   row.ActionURL.String,
		ActionLabel: row.ActionLabel.String,
		ReportID:    nullString(row.ReportID),
	}
}

// CreateNotification inserts a new notification record and returns it
// with its generated ID and creation time.
func (s *SQLStore) CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error) {
	if n.UserID == "" {
		return model.Notification{}, fmt.Errorf("notification recipient must not be empty")
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n = n.WithDefaults()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		n.ID, n.UserID, n.Title, n.Message, string(n.Type),
		string(n.Category), string(n.Priority),
		n.Read, n.CreatedAt.UTC(), utcPtr(n.ReadAt),
		emptyToNull(n.ActionURL), emptyToNull(n.ActionLabel), n.ReportID,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("creating notification: %w", err)
	}

	return n, nil
}

// GetNotification retrieves a single notification by ID.
func (s *SQLStore) GetNotification(ctx context.Context, id string) (*model.Notification, error) {
	var row notificationRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind("SELECT"+notificationColumns+" FROM notifications WHERE id = ?"), id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting notification %s: %w", id, err)
	}

	n := row.toModel()
	return &n, nil
}

// ListNotifications retrieves the newest notifications for a user,
// ordered by creation time descending.
func (s *SQLStore) ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	query := "SELECT" + notificationColumns +
		" FROM notifications WHERE user_id = ? ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), userID); err != nil {
		return nil, fmt.Errorf("querying notifications for %s: %w", userID, err)
	}

	notifications := make([]model.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, row.toModel())
	}
	return notifications, nil
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLStore) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE notifications SET is_read = ?, read_at = ? WHERE id = ?"),
		true, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return affectedOne(result, id)
}

// MarkAllNotificationsRead marks every unread notification of a user as read.
func (s *SQLStore) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE notifications SET is_read = ?, read_at = ? WHERE user_id = ? AND is_read = ?"),
		true, at.UTC(), userID, false,
	)
	if err != nil {
		return fmt.Errorf("marking notifications of %s as read: %w", userID, err)
	}
	return nil
}

// DeleteNotification removes a notification by ID.
func (s *SQLStore) DeleteNotification(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind("DELETE FROM notifications WHERE id = ?"), id,
	)
	if err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return affectedOne(result, id)
}

// DeleteAllNotifications removes every notification owned by a user.
func (s *SQLStore) DeleteAllNotifications(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind("DELETE FROM notifications WHERE user_id = ?"), userID,
	)
	if err != nil {
		return fmt.Errorf("deleting notifications of %s: %w", userID, err)
	}
	return nil
}

func emptyToNull(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// affectedOne maps a write that touched no rows to ErrNotFound.
func affectedOne(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows for notification %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}
