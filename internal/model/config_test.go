package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Backend.Driver)
	assert.Equal(t, 100, cfg.Desk.FetchLimit)
	assert.Equal(t, 4, cfg.Desk.ToastSeconds)
	assert.Equal(t, 50, cfg.Notifications.PageSize)
	assert.Equal(t, 15, cfg.Notifications.PollIntervalSec)
	assert.Equal(t, "INBOX", cfg.Intake.Mailbox)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  driver: postgres
  dsn: postgres://desk@localhost/reports
reviewer:
  user_id: reviewer-1
desk:
  fetch_limit: 25
`), 0o600))
	t.Setenv("APPROVALDESK_NOTIFICATIONS_PAGE_SIZE", "20")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Backend.Driver)
	assert.Equal(t, "postgres://desk@localhost/reports", cfg.Backend.DSN)
	assert.Equal(t, "reviewer-1", cfg.Reviewer.UserID)
	assert.Equal(t, 25, cfg.Desk.FetchLimit)
	assert.Equal(t, 20, cfg.Notifications.PageSize)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  driver: mysql\n"), 0o600))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "unsupported backend driver")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Reviewer.UserID = "reviewer-9"
	cfg.Desk.FetchLimit = 10

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "reviewer-9", loaded.Reviewer.UserID)
	assert.Equal(t, 10, loaded.Desk.FetchLimit)
}
