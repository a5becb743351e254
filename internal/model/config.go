package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Backend drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// BackendConfig selects and locates the report/notification store.
type BackendConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN is the Postgres connection string. When empty it is read from
	// the keyring entry "backend-dsn".
	DSN string `mapstructure:"dsn" yaml:"dsn"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// ReviewerConfig identifies the person working the desk.
type ReviewerConfig struct {
	UserID    string `mapstructure:"user_id" yaml:"user_id"`
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
}

// DeskConfig holds approval screen settings.
type DeskConfig struct {
	FetchLimit   int `mapstructure:"fetch_limit" yaml:"fetch_limit"`
	ToastSeconds int `mapstructure:"toast_seconds" yaml:"toast_seconds"`
}

// NotificationConfig holds notification panel and change feed settings.
type NotificationConfig struct {
	PageSize        int    `mapstructure:"page_size" yaml:"page_size"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	PreferencesDir  string `mapstructure:"preferences_dir" yaml:"preferences_dir"`
}

// MailConfig configures e-mail copies of approval decisions.
type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	From     string `mapstructure:"from" yaml:"from"`
}

// IntakeConfig configures the IMAP mailbox that receives report uploads.
type IntakeConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Host            string `mapstructure:"host" yaml:"host"`
	Port            string `mapstructure:"port" yaml:"port"`
	Username        string `mapstructure:"username" yaml:"username"`
	Mailbox         string `mapstructure:"mailbox" yaml:"mailbox"`
	TLS             bool   `mapstructure:"tls" yaml:"tls"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend       BackendConfig      `mapstructure:"backend" yaml:"backend"`
	Reviewer      ReviewerConfig     `mapstructure:"reviewer" yaml:"reviewer"`
	Desk          DeskConfig         `mapstructure:"desk" yaml:"desk"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Mail          MailConfig         `mapstructure:"mail" yaml:"mail"`
	Intake        IntakeConfig       `mapstructure:"intake" yaml:"intake"`
	Log           LogConfig          `mapstructure:"log" yaml:"log"`
}

// ConfigDir returns ~/.config/approvaldesk, or the working directory
// when the home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "approvaldesk")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		Backend: BackendConfig{
			Driver:     DriverSQLite,
			SQLitePath: filepath.Join(dir, "approvaldesk.db"),
		},
		Desk: DeskConfig{
			FetchLimit:   100,
			ToastSeconds: 4,
		},
		Notifications: NotificationConfig{
			PageSize:        50,
			PollIntervalSec: 15,
			PreferencesDir:  dir,
		},
		Mail: MailConfig{
			Port: 587,
		},
		Intake: IntakeConfig{
			Port:            "993",
			Mailbox:         "INBOX",
			TLS:             true,
			PollIntervalSec: 300,
		},
		Log: LogConfig{
			Path:  filepath.Join(dir, "approvaldesk.log"),
			Level: "info",
		},
	}
}

// setDefaults mirrors defaultAppConfig into viper so that partially
// filled files and environment overrides resolve consistently.
func setDefaults(v *viper.Viper, cfg *AppConfig) {
	v.SetDefault("backend.driver", cfg.Backend.Driver)
	v.SetDefault("backend.dsn", "")
	v.SetDefault("backend.sqlite_path", cfg.Backend.SQLitePath)
	v.SetDefault("reviewer.user_id", "")
	v.SetDefault("reviewer.jwt_secret", "")
	v.SetDefault("desk.fetch_limit", cfg.Desk.FetchLimit)
	v.SetDefault("desk.toast_seconds", cfg.Desk.ToastSeconds)
	v.SetDefault("notifications.page_size", cfg.Notifications.PageSize)
	v.SetDefault("notifications.poll_interval_sec", cfg.Notifications.PollIntervalSec)
	v.SetDefault("notifications.preferences_dir", cfg.Notifications.PreferencesDir)
	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", cfg.Mail.Port)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("intake.enabled", false)
	v.SetDefault("intake.host", "")
	v.SetDefault("intake.port", cfg.Intake.Port)
	v.SetDefault("intake.username", "")
	v.SetDefault("intake.mailbox", cfg.Intake.Mailbox)
	v.SetDefault("intake.tls", cfg.Intake.TLS)
	v.SetDefault("intake.poll_interval_sec", cfg.Intake.PollIntervalSec)
	v.SetDefault("log.path", cfg.Log.Path)
	v.SetDefault("log.level", cfg.Log.Level)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values may be overridden with APPROVALDESK_* environment variables
// (e.g. APPROVALDESK_BACKEND_DRIVER). A missing file yields the defaults
// plus any environment overrides.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APPROVALDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := defaultAppConfig()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Desk.FetchLimit <= 0 {
		cfg.Desk.FetchLimit = 100
	}
	if cfg.Notifications.PageSize <= 0 {
		cfg.Notifications.PageSize = 50
	}
	if cfg.Notifications.PollIntervalSec <= 0 {
		cfg.Notifications.PollIntervalSec = 15
	}
	if cfg.Desk.ToastSeconds <= 0 {
		cfg.Desk.ToastSeconds = 4
	}

	switch cfg.Backend.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported backend driver %q", cfg.Backend.Driver)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("reviewer", cfg.Reviewer)
	v.Set("desk", cfg.Desk)
	v.Set("notifications", cfg.Notifications)
	v.Set("mail", cfg.Mail)
	v.Set("intake", cfg.Intake)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
