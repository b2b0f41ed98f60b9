package telegram

import (
	"fmt"
	"strings"

	"gopkg.in/telebot.v3"

	"seller_escalation_bot/internal/domain/tracking"
)

const statusUsage = "Usage: /status <sellerId> <emailType> <status> [notes]\n" +
	"emailType: first_warning, last_warning or suspension\n" +
	"status: resolved, in-progress, pending or any single word"

// Only the newest records are listed; the web history page has the rest.
const historyLimit = 10

type statusCommand struct {
	sellerID  string
	emailType string
	status    string
	notes     string
}

func parseStatusArgs(args []string) (statusCommand, error) {
	if len(args) < 3 {
		return statusCommand{}, fmt.Errorf("expected at least 3 arguments, got %d", len(args))
	}
	return statusCommand{
		sellerID:  args[0],
		emailType: args[1],
		status:    args[2],
		notes:     strings.Join(args[3:], " "),
	}, nil
}

func statusUpdatedText(resp *tracking.Response) string {
	text := fmt.Sprintf("Seller %s, %s: status set to %q.", resp.SellerID, resp.EmailType, resp.Status)
	if resp.Notes != "" {
		text += "\nNotes: " + resp.Notes
	}
	return text
}

// historyMessage renders a seller's history and offers status buttons for
// the newest response that is not resolved yet. pageURL, when set, links the
// full web history.
func historyMessage(h *tracking.History, pageURL string) (string, *telebot.ReplyMarkup) {
	if !h.Found() {
		return fmt.Sprintf("No notifications were ever sent to seller %s.", h.SellerID), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "History for seller %s\n", h.SellerID)

	if len(h.Responses) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, r := range tail(h.Responses, historyLimit) {
			fmt.Fprintf(&b, "- %s %s (week %d): %s", r.SentAt.Format("2006-01-02"), r.EmailType, r.WeekNumber, r.Status)
			if r.Notes != "" {
				fmt.Fprintf(&b, ", %s", r.Notes)
			}
			b.WriteString("\n")
		}
	}

	if len(h.Records) > 0 {
		b.WriteString("\nEmails:\n")
		for _, r := range tail(h.Records, historyLimit) {
			opened := "not opened"
			if r.Opened {
				opened = fmt.Sprintf("opened %dx", r.ViewCount)
			}
			fmt.Fprintf(&b, "- %s %s to %s, %s\n", r.SentAt.Format("2006-01-02"), r.EmailType, r.Email, opened)
		}
	}

	markup := &telebot.ReplyMarkup{}
	var rows []telebot.Row
	if n := len(h.Responses); n > 0 && h.Responses[n-1].Status != tracking.StatusResolved {
		latest := h.Responses[n-1]
		rows = append(rows, markup.Row(
			statusButton(markup, "Mark resolved", "res", latest.SellerID, latest.EmailType),
			statusButton(markup, "Mark in progress", "inp", latest.SellerID, latest.EmailType),
		))
	}
	if pageURL != "" {
		rows = append(rows, markup.Row(markup.URL("Open full history", pageURL)))
	}
	if len(rows) == 0 {
		return b.String(), nil
	}
	markup.Inline(rows...)
	return b.String(), markup
}

func tail[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
