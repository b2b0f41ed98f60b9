package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"seller_escalation_bot/internal/infra/config"
	"seller_escalation_bot/internal/infra/logger"
)

// env is filled by the root command before any subcommand runs.
type env struct {
	cfg *config.AppConfig
	log *logrus.Entry
}

func NewRootCmd(version string) *cobra.Command {
	e := &env{}

	cmd := &cobra.Command{
		Use:           "escalator",
		Short:         "Seller quality escalation: weekly warnings, tracking and operator bot",
		SilenceUsage:  true,
		SilenceErrors: true, // main prints the error once
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg)
			e.cfg = cfg
			e.log = logger.Component("cli").WithField("command", cmd.Name())
			return nil
		},
	}

	cmd.AddCommand(newServeCmd(e))
	cmd.AddCommand(newRunCmd(e))
	cmd.AddCommand(newEvaluateCmd(e))
	cmd.AddCommand(newStatusCmd(e))
	cmd.AddCommand(newHistoryCmd(e))
	cmd.AddCommand(newMigrateCmd(e))

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}
