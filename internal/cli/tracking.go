package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"seller_escalation_bot/internal/app"
	"seller_escalation_bot/internal/domain/tracking"
	idb "seller_escalation_bot/internal/infra/database"
)

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status <sellerId> <emailType> <status> [notes...]",
		Short: "Set the response status of a seller's latest warning",
		Long: "Set the response status of the latest warning of the given type.\n" +
			"emailType is first_warning, last_warning or suspension. status is resolved,\n" +
			"in-progress, pending or any custom text.",
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := app.NewTrackingService(idb.NewPostgresTrackingRepository(db), e.log)
			resp, err := svc.UpdateResponse(cmd.Context(), args[0], args[1], args[2], strings.Join(args[3:], " "))
			if errors.Is(err, idb.ErrResponseNotFound) {
				return fmt.Errorf("no %s record found for seller %s", args[1], args[0])
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seller %s, %s: status set to %q\n", resp.SellerID, resp.EmailType, resp.Status)
			return nil
		},
	}
}

func newHistoryCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "history <sellerId>",
		Short: "Show the warnings and emails sent to a seller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := app.NewTrackingService(idb.NewPostgresTrackingRepository(db), e.log)
			h, err := svc.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func printHistory(w io.Writer, h *tracking.History) {
	if !h.Found() {
		_, _ = fmt.Fprintf(w, "No notifications were ever sent to seller %s\n", h.SellerID)
		return
	}

	_, _ = fmt.Fprintf(w, "Warnings for seller %s:\n", h.SellerID)
	for _, r := range h.Responses {
		responded := "-"
		if r.RespondedAt.Valid {
			responded = r.RespondedAt.Time.Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "  %s  %-13s week %-3d %-12s responded %s  %s\n",
			r.SentAt.Format("2006-01-02 15:04"), r.EmailType, r.WeekNumber, r.Status, responded, r.Notes)
	}

	_, _ = fmt.Fprintln(w, "Emails:")
	for _, r := range h.Records {
		opened := "not opened"
		if r.Opened {
			opened = fmt.Sprintf("opened %s, %d views", r.OpenedAt.Time.Format("2006-01-02 15:04"), r.ViewCount)
		}
		_, _ = fmt.Fprintf(w, "  %s  %-13s %s  %s\n", r.SentAt.Format("2006-01-02 15:04"), r.EmailType, r.Email, opened)
	}
}
