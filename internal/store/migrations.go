package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// sqliteMigrations is the ordered list of schema migrations for SQLite.
// Each migration's version must be sequential starting from 1.
var sqliteMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	id        TEXT PRIMARY KEY,
	full_name TEXT NOT NULL DEFAULT '',
	sbu_name  TEXT NOT NULL DEFAULT '',
	email     TEXT NOT NULL DEFAULT '',
	role      TEXT NOT NULL DEFAULT 'user'
);

CREATE TABLE IF NOT EXISTS reports (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	file_name        TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending_approval'
		CHECK(status IN ('pending_approval', 'approved', 'rejected')),
	indicator_type   TEXT NOT NULL DEFAULT '',
	raw_data         TEXT NOT NULL DEFAULT '',
	processed_data   TEXT NOT NULL DEFAULT '',
	score            REAL NOT NULL DEFAULT 0,
	file_size        INTEGER NOT NULL DEFAULT 0,
	approval_notes   TEXT NOT NULL DEFAULT '',
	approved_at      DATETIME,
	approved_by      TEXT,
	rejection_reason TEXT NOT NULL DEFAULT '',
	rejected_at      DATETIME,
	rejected_by      TEXT,
	validation       TEXT NOT NULL DEFAULT '{}',
	media_breakdown  TEXT NOT NULL DEFAULT '{}',
	submitted_at     DATETIME NOT NULL,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	title        TEXT NOT NULL,
	message      TEXT NOT NULL,
	type         TEXT NOT NULL DEFAULT 'info',
	category     TEXT,
	priority     TEXT,
	is_read      INTEGER NOT NULL DEFAULT 0 CHECK(is_read IN (0, 1)),
	created_at   DATETIME NOT NULL,
	read_at      DATETIME,
	action_url   TEXT,
	action_label TEXT,
	report_id    TEXT
);

CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_user_id ON reports(user_id);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(user_id, is_read);
CREATE INDEX IF NOT EXISTS idx_profiles_email ON profiles(email);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

// postgresMigrations is the ordered list of schema migrations for Postgres.
// Version 2 installs the trigger that feeds the notification change feed.
var postgresMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	id        TEXT PRIMARY KEY,
	full_name TEXT NOT NULL DEFAULT '',
	sbu_name  TEXT NOT NULL DEFAULT '',
	email     TEXT NOT NULL DEFAULT '',
	role      TEXT NOT NULL DEFAULT 'user'
);

CREATE TABLE IF NOT EXISTS reports (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	file_name        TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending_approval'
		CHECK(status IN ('pending_approval', 'approved', 'rejected')),
	indicator_type   TEXT NOT NULL DEFAULT '',
	raw_data         TEXT NOT NULL DEFAULT '',
	processed_data   TEXT NOT NULL DEFAULT '',
	score            DOUBLE PRECISION NOT NULL DEFAULT 0,
	file_size        BIGINT NOT NULL DEFAULT 0,
	approval_notes   TEXT NOT NULL DEFAULT '',
	approved_at      TIMESTAMPTZ,
	approved_by      TEXT,
	rejection_reason TEXT NOT NULL DEFAULT '',
	rejected_at      TIMESTAMPTZ,
	rejected_by      TEXT,
	validation       TEXT NOT NULL DEFAULT '{}',
	media_breakdown  TEXT NOT NULL DEFAULT '{}',
	submitted_at     TIMESTAMPTZ NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	title        TEXT NOT NULL,
	message      TEXT NOT NULL,
	type         TEXT NOT NULL DEFAULT 'info',
	category     TEXT,
	priority     TEXT,
	is_read      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL,
	read_at      TIMESTAMPTZ,
	action_url   TEXT,
	action_label TEXT,
	report_id    TEXT
);

CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_user_id ON reports(user_id);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(user_id, is_read);
CREATE INDEX IF NOT EXISTS idx_profiles_email ON profiles(email);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE OR REPLACE FUNCTION notify_notification_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify(
		'notification_changes',
		json_build_object('op', TG_OP, 'id', NEW.id, 'user_id', NEW.user_id)::text
	);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS notifications_change_feed ON notifications;
CREATE TRIGGER notifications_change_feed
	AFTER INSERT OR UPDATE ON notifications
	FOR EACH ROW EXECUTE FUNCTION notify_notification_change();

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
