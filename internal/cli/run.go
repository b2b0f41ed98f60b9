package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"seller_escalation_bot/internal/app"
	idb "seller_escalation_bot/internal/infra/database"
	"seller_escalation_bot/internal/infra/telegram"
	"seller_escalation_bot/internal/infra/templates"
)

func newRunCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the weekly evaluation once and send the warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := e.cfg, e.log

			db, err := openDatabase(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			renderer, err := templates.New(cfg.TemplatesDir)
			if err != nil {
				return err
			}

			var observers []app.RunObserver
			if cfg.TelegramEnabled() {
				bot, err := newBot(cfg, log)
				if err != nil {
					return err
				}
				observers = append(observers, telegram.NewRunNotifier(telegram.NewChatMessenger(bot), cfg.AdminTelegramID, log))
			}

			dispatcher, err := newDispatcher(cfg, renderer, idb.NewPostgresTrackingRepository(db), log, observers...)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RunTimeout)
			defer cancel()
			report, err := dispatcher.RunWeekly(ctx)
			if err != nil {
				return fmt.Errorf("weekly run failed: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
			return nil
		},
	}
}
