package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nhle/approvaldesk/internal/feed"
	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/store"
)

// DefaultPageSize is the number of notifications loaded for a user.
const DefaultPageSize = 50

// Synchronizer keeps one user's newest notifications and unread count in
// memory, in step with the store and the change feed. The unread count
// always equals the number of unread items held.
type Synchronizer struct {
	store    store.NotificationStore
	userID   string
	pageSize int
	now      func() time.Time

	mu     sync.Mutex
	items  []model.Notification
	unread int
}

// NewSynchronizer creates a synchronizer for userID.
func NewSynchronizer(s store.NotificationStore, userID string, pageSize int) *Synchronizer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Synchronizer{store: s, userID: userID, pageSize: pageSize, now: time.Now}
}

// UserID returns the user whose notifications are held.
func (s *Synchronizer) UserID() string {
	return s.userID
}

// Load replaces the held list with the newest page from the store.
func (s *Synchronizer) Load(ctx context.Context) error {
	items, err := s.store.ListNotifications(ctx, s.userID, s.pageSize)
	if err != nil {
		return fmt.Errorf("loading notifications: %w", err)
	}
	for i := range items {
		items[i] = items[i].WithDefaults()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.recount()
	return nil
}

// Apply merges a change feed event. It returns true when the event added
// a notification that was not held before. Inserts for a held ID replace
// it in place; updates for an unknown ID are ignored.
func (s *Synchronizer) Apply(ev feed.Event) bool {
	n := ev.Notification.WithDefaults()
	if n.UserID != s.userID {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := false
	i := s.indexOf(n.ID)
	switch {
	case i >= 0:
		s.items[i] = n
	case ev.Op == feed.OpInsert:
		s.items = append([]model.Notification{n}, s.items...)
		added = true
	}

	s.recount()
	return added
}

// Items returns a copy of the held notifications, newest first.
func (s *Synchronizer) Items() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Unread returns the number of held notifications not yet read.
func (s *Synchronizer) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// MarkRead marks one notification read in the store, then locally.
func (s *Synchronizer) MarkRead(ctx context.Context, id string) error {
	at := s.now().UTC()
	if err := s.store.MarkNotificationRead(ctx, id, at); err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.items[i].Read = true
		s.items[i].ReadAt = &at
	}
	s.recount()
	return nil
}

// MarkAllRead marks every notification of the user read in the store,
// then flags every held item read.
func (s *Synchronizer) MarkAllRead(ctx context.Context) error {
	at := s.now().UTC()
	if err := s.store.MarkAllNotificationsRead(ctx, s.userID, at); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			s.items[i].ReadAt = &at
		}
	}
	s.unread = 0
	return nil
}

// Delete removes one notification from the store, then locally.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteNotification(ctx, id); err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	s.recount()
	return nil
}

// DeleteAll removes every notification of the user, then clears the list.
func (s *Synchronizer) DeleteAll(ctx context.Context) error {
	if err := s.store.DeleteAllNotifications(ctx, s.userID); err != nil {
		return fmt.Errorf("deleting all notifications: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.unread = 0
	return nil
}

func (s *Synchronizer) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// recount must be called with mu held.
func (s *Synchronizer) recount() {
	unread := 0
	for _, n := range s.items {
		if !n.Read {
			unread++
		}
	}
	s.unread = unread
}
