package cli

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"seller_escalation_bot/internal/app"
	"seller_escalation_bot/internal/domain/quality"
	"seller_escalation_bot/internal/domain/tracking"
	"seller_escalation_bot/internal/infra/config"
	idb "seller_escalation_bot/internal/infra/database"
	"seller_escalation_bot/internal/infra/mailer"
	"seller_escalation_bot/internal/infra/orderlines"
	"seller_escalation_bot/internal/infra/spreadsheet"
	"seller_escalation_bot/internal/infra/templates"
)

// openDatabase connects to Postgres and brings the schema up to date.
func openDatabase(cfg *config.AppConfig, log *logrus.Entry) (*sql.DB, error) {
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	if err := idb.Migrate(db, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Database connection established, migrations applied.")
	return db, nil
}

// newSource picks the snapshot source configured by SOURCE_KIND.
func newSource(cfg *config.AppConfig, log *logrus.Entry) (app.SnapshotSource, error) {
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	resolver := quality.NewResolver(policy)

	switch cfg.SourceKind {
	case config.SourceSheet:
		return spreadsheet.NewReader(cfg.SourcePath, cfg.SourceSheet, resolver, log), nil
	case config.SourceOrderLines:
		return orderlines.NewSource(cfg.SourcePath, resolver, log), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", cfg.SourceKind)
}

func newDispatcher(
	cfg *config.AppConfig,
	renderer *templates.Renderer,
	repo tracking.Repository,
	log *logrus.Entry,
	observers ...app.RunObserver,
) (*app.DispatchService, error) {
	source, err := newSource(cfg, log)
	if err != nil {
		return nil, err
	}
	sender := mailer.NewSMTPSender(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, log)

	return app.NewDispatchService(source, renderer, sender, repo, templates.NewLinks(cfg.PublicBaseURL), log, observers...), nil
}

// newBot creates the operator bot. It is not started here.
func newBot(cfg *config.AppConfig, log *logrus.Entry) (*telebot.Bot, error) {
	botLogger := log.WithField("component", "telebot")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"message":   c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telegram handler failed")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}
	return bot, nil
}
