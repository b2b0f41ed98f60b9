// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"seller_escalation_bot/internal/app"
)

const adminHelp = "Available commands:\n\n" +
	"`/run`\n - Run the weekly evaluation and send warnings now.\n\n" +
	"`/status <sellerId> <emailType> <status> [notes]`\n - Set the response status of the latest warning of that type.\n\n" +
	"`/history <sellerId>`\n - Show the warnings and emails sent to a seller.\n\n" +
	"`/help`\n - Show this message."

func RegisterBotCommands(
	b *telebot.Bot,
	operator *app.OperatorService,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if operator.IsAdmin(senderID) {
			logCtx.Info("User identified as Admin")
			return c.Send(fmt.Sprintf("Hello, %s! Weekly run summaries will be posted here. Use /help for the list of commands.", c.Sender().FirstName))
		}

		logCtx.Info("User is unknown")
		return c.Send("Hello! This bot is used by the seller quality team. Ask an administrator if you need access.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if operator.IsAdmin(senderID) {
			return c.Send(adminHelp, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		}

		logCtx.Info("User is unknown, sending restricted help.")
		return c.Send("No commands are available to you.")
	})
}
