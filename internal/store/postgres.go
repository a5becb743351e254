package store

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/approvaldesk/internal/model"
)

// NotificationChannel is the LISTEN/NOTIFY channel the notifications
// trigger publishes row changes on.
const NotificationChannel = "notification_changes"

// NewPostgresStore connects to Postgres through the pgx stdlib driver
// and applies pending migrations, including the change feed trigger.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s, err := newSQLStore(db, model.DriverPostgres)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
