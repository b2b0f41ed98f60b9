package telegram

import (
	"context"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"seller_escalation_bot/internal/app"
)

// statusBtnUnique identifies status buttons; the payload is status|sellerId|emailType.
const statusBtnUnique = "st"

// Button payloads use short keys; Telegram caps callback data at 64 bytes.
var callbackStatuses = map[string]string{
	"res": "Resolved",
	"inp": "In Progress",
}

func statusButton(markup *telebot.ReplyMarkup, text, key, sellerID, emailType string) telebot.Btn {
	return markup.Data(text, statusBtnUnique, key, sellerID, emailType)
}

func registerStatusCallbacks(ctx context.Context, b *telebot.Bot, operator *app.OperatorService, baseLogger *logrus.Entry) {
	b.Handle(&telebot.Btn{Unique: statusBtnUnique}, func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "status_callback",
			"sender_id": c.Sender().ID,
		})

		if !operator.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized callback")
			return c.Respond(&telebot.CallbackResponse{Text: unauthorizedText})
		}

		args := c.Args() // status key, seller, email type
		if len(args) != 3 {
			handlerLogger.WithField("data", c.Callback().Data).Warn("Malformed callback data")
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown button."})
		}
		status, ok := callbackStatuses[args[0]]
		if !ok {
			handlerLogger.WithField("data", c.Callback().Data).Warn("Unknown status key")
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown button."})
		}
		sellerID, emailType := args[1], args[2]
		handlerLogger = handlerLogger.WithFields(logrus.Fields{
			"seller_id":  sellerID,
			"email_type": emailType,
			"status":     status,
		})

		resp, err := operator.UpdateStatus(ctx, c.Sender().ID, sellerID, emailType, status, "")
		if err != nil {
			return c.Respond(&telebot.CallbackResponse{Text: statusErrorText(handlerLogger, err, sellerID, emailType)})
		}
		handlerLogger.Info("Status updated from button")

		if err := c.Respond(&telebot.CallbackResponse{Text: "Status saved."}); err != nil {
			handlerLogger.WithError(err).Warn("Failed to answer callback")
		}
		// Drop the buttons so the same status is not sent twice.
		if _, err := c.Bot().Edit(c.Message(), statusUpdatedText(resp)); err != nil {
			handlerLogger.WithError(err).Warn("Failed to edit history message")
		}
		return nil
	})
}
