package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/store"
)

// Loader fetches the full row for a change announced on the channel.
type Loader interface {
	GetNotification(ctx context.Context, id string) (*model.Notification, error)
}

// changePayload is the JSON body published by the notifications trigger.
type changePayload struct {
	Op     Op     `json:"op"`
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// PGListener is a Feed backed by Postgres LISTEN/NOTIFY. Each
// subscription holds its own connection for the lifetime of ctx.
type PGListener struct {
	dsn    string
	loader Loader
}

// NewPGListener creates a listener that connects with dsn and loads
// announced rows through loader.
func NewPGListener(dsn string, loader Loader) *PGListener {
	return &PGListener{dsn: dsn, loader: loader}
}

// Subscribe opens a dedicated connection, issues LISTEN and forwards
// changes whose user_id matches userID.
func (l *PGListener) Subscribe(ctx context.Context, userID string) (<-chan Event, error) {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting listener: %w", err)
	}

	channel := pgx.Identifier{store.NotificationChannel}.Sanitize()
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("listening on %s: %w", store.NotificationChannel, err)
	}

	ch := make(chan Event, eventBuffer)
	go l.run(ctx, conn, userID, ch)
	return ch, nil
}

func (l *PGListener) run(ctx context.Context, conn *pgx.Conn, userID string, ch chan<- Event) {
	defer close(ch)
	defer conn.Close(context.Background())

	logger := log.WithField("user_id", userID)

	for {
		msg, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.WithError(err).Error("notification listener stopped")
			}
			return
		}

		ev, ok, err := l.decode(ctx, msg.Payload, userID)
		if err != nil {
			logger.WithError(err).Warn("dropping notification change")
			continue
		}
		if !ok {
			continue
		}

		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// decode parses a trigger payload and loads the row. ok is false for
// changes addressed to other users.
func (l *PGListener) decode(ctx context.Context, payload, userID string) (Event, bool, error) {
	var change changePayload
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return Event{}, false, fmt.Errorf("decoding payload: %w", err)
	}
	if change.UserID != userID {
		return Event{}, false, nil
	}
	if change.Op != OpInsert && change.Op != OpUpdate {
		return Event{}, false, nil
	}

	n, err := l.loader.GetNotification(ctx, change.ID)
	if err != nil {
		return Event{}, false, fmt.Errorf("loading notification %s: %w", change.ID, err)
	}
	return Event{Op: change.Op, Notification: n.WithDefaults()}, true, nil
}
