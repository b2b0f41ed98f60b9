package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"seller_escalation_bot/internal/domain/quality"
)

func newEvaluateCmd(e *env) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Show this week's escalation decisions without sending anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := newSource(e.cfg, e.log)
			if err != nil {
				return err
			}
			batch, err := source.LoadSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			printBatch(cmd.OutOrStdout(), batch, all)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Also list sellers with no action")
	return cmd
}

func printBatch(w io.Writer, batch *quality.Batch, all bool) {
	var notifying, excluded int
	for _, s := range batch.Snapshots {
		switch {
		case s.Excluded:
			excluded++
		case s.FinalAction.Notifies():
			notifying++
		case !all:
			continue
		}
		_, _ = fmt.Fprintf(w, "%-12s %-30s defective %6.2f%% streak %d %-10s appearance %6.2f%% streak %d %-10s -> %s",
			s.SellerID, s.SellerName,
			s.DefectiveRate*100, s.DefectiveStreak, s.DefectiveLabel,
			s.AppearanceRate*100, s.AppearanceStreak, s.AppearanceLabel,
			s.FinalAction)
		if s.Excluded {
			_, _ = fmt.Fprint(w, " (excluded)")
		}
		_, _ = fmt.Fprintln(w)
	}
	for _, rowErr := range batch.Skipped {
		_, _ = fmt.Fprintf(w, "skipped %v\n", rowErr)
	}
	_, _ = fmt.Fprintf(w, "%d sellers, %d to notify, %d excluded, %d rows skipped\n",
		len(batch.Snapshots), notifying, excluded, len(batch.Skipped))
}
