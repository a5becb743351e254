package store

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/approvaldesk/internal/model"
)

// profileCacheSize bounds the number of profiles kept in memory.
const profileCacheSize = 256

// SQLStore implements Store on top of sqlx. The same queries serve the
// SQLite and Postgres dialects; placeholders are rebound per driver.
type SQLStore struct {
	db       *sqlx.DB
	dialect  string
	profiles *lru.Cache[string, model.Profile]
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s, err := newSQLStore(db, model.DriverSQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newSQLStore(db *sqlx.DB, dialect string) (*SQLStore, error) {
	cache, err := lru.New[string, model.Profile](profileCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating profile cache: %w", err)
	}

	s := &SQLStore{db: db, dialect: dialect, profiles: cache}
	if err := s.runMigrations(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations for the store's dialect in order.
func (s *SQLStore) runMigrations() error {
	checkTable := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'"
	steps := sqliteMigrations
	if s.dialect == model.DriverPostgres {
		checkTable = "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'schema_version'"
		steps = postgresMigrations
	}

	var tableCount int
	if err := s.db.Get(&tableCount, checkTable); err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	currentVersion := 0
	if tableCount > 0 {
		err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range steps {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}
