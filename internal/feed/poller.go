package feed

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nhle/approvaldesk/internal/model"
)

// Lister is the part of the notification store the poller reads.
type Lister interface {
	ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error)
}

// fetchTimeout is the maximum time allowed for a single snapshot query.
const fetchTimeout = 30 * time.Second

// Poller is a Feed for stores without push support. It snapshots the
// newest page of a user's notifications every interval and emits the
// difference against the previous snapshot.
type Poller struct {
	lister   Lister
	interval time.Duration
	pageSize int
}

// NewPoller creates a polling feed. Non-positive values fall back to
// a 15 second interval and a 50 item page.
func NewPoller(l Lister, interval time.Duration, pageSize int) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Poller{lister: l, interval: interval, pageSize: pageSize}
}

// Subscribe takes a baseline snapshot and starts the polling loop. Only
// changes made after the call produce events.
func (p *Poller) Subscribe(ctx context.Context, userID string) (<-chan Event, error) {
	baseline, err := p.snapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("taking baseline snapshot: %w", err)
	}

	ch := make(chan Event, eventBuffer)
	go p.run(ctx, userID, baseline, ch)
	return ch, nil
}

func (p *Poller) run(ctx context.Context, userID string, prev []model.Notification, ch chan<- Event) {
	defer close(ch)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		next, err := p.snapshot(ctx, userID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).WithField("user_id", userID).Warn("polling notifications")
			continue
		}

		for _, ev := range Diff(prev, next) {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
		prev = next
	}
}

func (p *Poller) snapshot(ctx context.Context, userID string) ([]model.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	return p.lister.ListNotifications(ctx, userID, p.pageSize)
}

// Diff compares two newest-first snapshots. Items absent from prev and
// newer than everything in it are reported as inserts, oldest first, so
// prepending them in order keeps the list newest-first. Unknown items no
// newer than prev are older rows shifted into the page by a removal and
// are skipped. Items whose read state changed are reported as updates.
// Removals are not reported.
func Diff(prev, next []model.Notification) []Event {
	known := make(map[string]model.Notification, len(prev))
	var newest time.Time
	for _, n := range prev {
		known[n.ID] = n
		if n.CreatedAt.After(newest) {
			newest = n.CreatedAt
		}
	}

	var events []Event
	for i := len(next) - 1; i >= 0; i-- {
		n := next[i]
		old, ok := known[n.ID]
		switch {
		case !ok && (len(prev) == 0 || n.CreatedAt.After(newest)):
			events = append(events, Event{Op: OpInsert, Notification: n})
		case ok && old.Read != n.Read:
			events = append(events, Event{Op: OpUpdate, Notification: n})
		}
	}
	return events
}
