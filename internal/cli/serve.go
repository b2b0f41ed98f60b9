package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"

	"seller_escalation_bot/internal/app"
	idb "seller_escalation_bot/internal/infra/database"
	"seller_escalation_bot/internal/infra/metrics"
	"seller_escalation_bot/internal/infra/scheduler"
	"seller_escalation_bot/internal/infra/telegram"
	"seller_escalation_bot/internal/infra/templates"
	"seller_escalation_bot/internal/infra/web"
)

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP endpoints, the weekly scheduler and the operator bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log := e.cfg, e.log
			log.WithFields(logrus.Fields{
				"environment": cfg.Environment,
				"source_kind": cfg.SourceKind,
				"admin_id":    cfg.AdminTelegramID,
			}).Info("Seller escalation service starting...")

			db, err := openDatabase(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := idb.NewPostgresTrackingRepository(db)

			renderer, err := templates.New(cfg.TemplatesDir)
			if err != nil {
				return err
			}

			m := metrics.New()
			observers := []app.RunObserver{m}

			var bot *telebot.Bot
			if cfg.TelegramEnabled() {
				if bot, err = newBot(cfg, log); err != nil {
					return err
				}
				observers = append(observers, telegram.NewRunNotifier(telegram.NewChatMessenger(bot), cfg.AdminTelegramID, log))
			}

			dispatcher, err := newDispatcher(cfg, renderer, repo, log, observers...)
			if err != nil {
				return err
			}
			trackingService := app.NewTrackingService(repo, log)

			if bot != nil {
				operator := app.NewOperatorService(trackingService, dispatcher, cfg.AdminTelegramID)
				telegram.RegisterBotCommands(bot, operator, log)
				telegram.RegisterOperatorHandlers(ctx, bot, operator, templates.NewLinks(cfg.PublicBaseURL), log)
				// Start bot in a goroutine so it doesn't block graceful shutdown handling
				go bot.Start()
				defer bot.Stop()
				log.Info("Operator bot started.")
			} else {
				log.Info("TELEGRAM_TOKEN not set, operator bot disabled.")
			}

			weekly := scheduler.NewWeeklyScheduler(dispatcher, log, cfg.CronSpecWeekly, cfg.RunTimeout)
			if err := weekly.Start(); err != nil {
				return err
			}
			defer weekly.Stop()

			router := web.NewRouter(ctx, web.RouterDeps{
				Exec:           web.NewExecHandler(trackingService, renderer, m, log),
				Metrics:        m.Handler(),
				DB:             db,
				RateLimitRPS:   cfg.RateLimitRPS,
				RateLimitBurst: cfg.RateLimitBurst,
				Log:            log,
			})

			// Blocks until the context is cancelled by SIGINT/SIGTERM.
			if err := web.Serve(ctx, cfg.HTTPAddr, router, log); err != nil {
				return err
			}
			log.Info("Shutting down application...")
			return nil
		},
	}
}
