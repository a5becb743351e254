package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/nhle/approvaldesk/internal/app"
	"github.com/nhle/approvaldesk/internal/approval"
	"github.com/nhle/approvaldesk/internal/auth"
	"github.com/nhle/approvaldesk/internal/credential"
	"github.com/nhle/approvaldesk/internal/feed"
	"github.com/nhle/approvaldesk/internal/intake"
	"github.com/nhle/approvaldesk/internal/logging"
	"github.com/nhle/approvaldesk/internal/mailer"
	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/notify"
	"github.com/nhle/approvaldesk/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "approvaldesk: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("approvaldesk", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", model.DefaultConfigPath(), "path to config.yaml")
	envFile := flags.String("env-file", ".env", "dotenv file loaded before the config")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", *envFile, err)
	}

	if rest := flags.Args(); len(rest) > 0 {
		return runSecret(rest)
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	logFile, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, dsn, err := openStore(ctx, cfg.Backend)
	if err != nil {
		return err
	}
	defer s.Close()

	token, err := credential.LookupOptional(credential.KeyAccessToken)
	if err != nil {
		log.WithError(err).Warn("reading access token, using configured reviewer")
	}
	identity, err := auth.Resolve(token, cfg.Reviewer.JWTSecret, cfg.Reviewer.UserID)
	if err != nil {
		return fmt.Errorf("resolving reviewer: %w", err)
	}
	log.WithFields(log.Fields{
		"user_id": identity.UserID,
		"driver":  cfg.Backend.Driver,
	}).Info("approval desk starting")

	notifier := notify.NewNotifier(s, s, newMailer(cfg.Mail))
	svc := approval.NewService(s, notifier, identity.UserID, cfg.Desk.FetchLimit)
	sync := notify.NewSynchronizer(s, identity.UserID, cfg.Notifications.PageSize)

	var changes feed.Feed
	if cfg.Backend.Driver == model.DriverPostgres {
		changes = feed.NewPGListener(dsn, s)
	} else {
		changes = feed.NewPoller(s, time.Duration(cfg.Notifications.PollIntervalSec)*time.Second, cfg.Notifications.PageSize)
	}

	if cfg.Intake.Enabled {
		go startIntake(ctx, cfg.Intake, s, notifier)
	}

	m := app.New(app.Deps{
		Service:     svc,
		Sync:        sync,
		Preferences: notify.NewPreferenceStore(cfg.Notifications.PreferencesDir),
		Feed:        changes,
		ToastTTL:    time.Duration(cfg.Desk.ToastSeconds) * time.Second,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running desk: %w", err)
	}
	return nil
}

// openStore opens the configured backend. The returned DSN is only set
// for postgres, where the change feed needs its own connection.
func openStore(ctx context.Context, cfg model.BackendConfig) (*store.SQLStore, string, error) {
	if cfg.Driver == model.DriverPostgres {
		dsn := cfg.DSN
		if dsn == "" {
			var err error
			if dsn, err = credential.Lookup(credential.KeyBackendDSN); err != nil {
				return nil, "", fmt.Errorf("backend dsn not configured: %w", err)
			}
		}
		s, err := store.NewPostgresStore(ctx, dsn)
		return s, dsn, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		return nil, "", fmt.Errorf("creating data directory: %w", err)
	}
	s, err := store.NewSQLiteStore(cfg.SQLitePath)
	return s, "", err
}

// newMailer returns nil when mail is disabled or misconfigured so that
// decisions are only recorded in-app.
func newMailer(cfg model.MailConfig) notify.Mailer {
	if !cfg.Enabled {
		return nil
	}
	password, err := credential.Lookup(credential.KeySMTPPassword)
	if err != nil {
		log.WithError(err).Warn("smtp password unavailable, sending without auth")
	}
	m, err := mailer.New(cfg, password)
	if err != nil {
		log.WithError(err).Warn("mail disabled")
		return nil
	}
	return m
}

func startIntake(ctx context.Context, cfg model.IntakeConfig, s *store.SQLStore, notifier *notify.Notifier) {
	password, err := credential.Lookup(credential.KeyIMAPPassword)
	if err != nil {
		log.WithError(err).Error("intake disabled: imap password unavailable")
		return
	}
	mb := intake.NewIMAPMailbox(cfg.Host, cfg.Port, cfg.Username, password, cfg.Mailbox, cfg.TLS)
	intake.New(mb, s, s, notifier, time.Duration(cfg.PollIntervalSec)*time.Second).Run(ctx)
}

// runSecret handles "secret set <key> <value>" and "secret delete <key>".
func runSecret(args []string) error {
	usage := errors.New("usage: approvaldesk secret set <key> <value> | secret delete <key>")
	if len(args) < 3 || args[0] != "secret" {
		return usage
	}

	switch args[1] {
	case "set":
		if len(args) != 4 {
			return usage
		}
		if err := credential.Set(args[2], args[3]); err != nil {
			return err
		}
		fmt.Printf("stored %s\n", args[2])
	case "delete":
		if err := credential.Delete(args[2]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[2])
	default:
		return usage
	}
	return nil
}
