package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"seller_escalation_bot/internal/app"
	idb "seller_escalation_bot/internal/infra/database"
	"seller_escalation_bot/internal/infra/templates"
)

const unauthorizedText = "Error: you are not allowed to run this command."

// RegisterOperatorHandlers registers the commands the quality team uses.
// Every command is checked against the configured admin before the service is called.
// links points /history replies at the web history page, where older warnings can be updated.
func RegisterOperatorHandlers(ctx context.Context, b *telebot.Bot, operator *app.OperatorService, links templates.Links, baseLogger *logrus.Entry) {
	b.Handle("/run", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/run",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !operator.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedText)
		}
		if err := c.Send("Starting weekly run..."); err != nil {
			handlerLogger.WithError(err).Warn("Failed to acknowledge /run")
		}

		report, err := operator.TriggerRun(ctx, c.Sender().ID)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrRunInProgress):
				logWithError.Warn("Run already in progress")
				return c.Send("A weekly run is already in progress. Try again when it finishes.")
			case errors.Is(err, app.ErrAdminNotAuthorized):
				logWithError.Warn("Admin not authorized (service level)")
				return c.Send(unauthorizedText)
			default:
				// The run notifier posts the failure report.
				logWithError.Error("Weekly run failed")
				return nil
			}
		}

		handlerLogger.WithField("notified", report.Notified).Info("Weekly run triggered from chat")
		return nil
	})

	b.Handle("/status", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/status",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !operator.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedText)
		}

		cmd, err := parseStatusArgs(c.Args())
		if err != nil {
			handlerLogger.WithField("args_count", len(c.Args())).Warn("Invalid command format")
			return c.Send(statusUsage)
		}
		handlerLogger = handlerLogger.WithFields(logrus.Fields{
			"seller_id":  cmd.sellerID,
			"email_type": cmd.emailType,
			"status":     cmd.status,
		})

		resp, err := operator.UpdateStatus(ctx, c.Sender().ID, cmd.sellerID, cmd.emailType, cmd.status, cmd.notes)
		if err != nil {
			return c.Send(statusErrorText(handlerLogger, err, cmd.sellerID, cmd.emailType))
		}

		handlerLogger.Info("Status updated from chat")
		return c.Send(statusUpdatedText(resp))
	})

	b.Handle("/history", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/history",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !operator.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedText)
		}

		args := c.Args()
		if len(args) != 1 {
			return c.Send("Usage: /history <sellerId>")
		}

		history, err := operator.History(ctx, c.Sender().ID, args[0])
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrInvalidRequest):
				logWithError.Warn("Invalid history request")
				return c.Send(fmt.Sprintf("Error: %v", err))
			case errors.Is(err, app.ErrAdminNotAuthorized):
				return c.Send(unauthorizedText)
			default:
				logWithError.Error("Failed to load history")
				return c.Send("An error occurred while loading the history. Please try again later.")
			}
		}

		pageURL := ""
		if history.Found() {
			pageURL = links.History(history.SellerID)
		}
		text, markup := historyMessage(history, pageURL)
		return c.Send(text, &telebot.SendOptions{ReplyMarkup: markup})
	})

	registerStatusCallbacks(ctx, b, operator, baseLogger)
}

// statusErrorText maps UpdateStatus errors to chat replies.
func statusErrorText(log *logrus.Entry, err error, sellerID, emailType string) string {
	logWithError := log.WithError(err)
	switch {
	case errors.Is(err, idb.ErrResponseNotFound):
		logWithError.Warn("No response record to update")
		return fmt.Sprintf("No %s record found for seller %s.", emailType, sellerID)
	case errors.Is(err, app.ErrInvalidRequest):
		logWithError.Warn("Invalid status update")
		return fmt.Sprintf("Error: %v", err)
	case errors.Is(err, app.ErrAdminNotAuthorized):
		logWithError.Warn("Admin not authorized (service level)")
		return unauthorizedText
	default:
		logWithError.Error("Failed to update status")
		return "An error occurred while updating the status. Please try again later."
	}
}
