// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const adminHelp = "Available commands:\n\n" +
	"`/plan`\n - Build a plan for today's pending payments and send it here.\n\n" +
	"`/cards`\n - List cards with their stored balances.\n\n" +
	"`/set_balance <card_id> <amount>`\n - Record a card's current available credit.\n\n" +
	"`/add_holiday YYYY-MM-DD [name]`\n - Mark a date as a non-business day.\n\n" +
	"`/remove_holiday YYYY-MM-DD`\n - Remove a holiday.\n\n" +
	"`/help`\n - Show this message."

// StartReply answers /start for the given sender.
func StartReply(senderID, adminTelegramID, managerTelegramID int64, firstName string) string {
	switch senderID {
	case adminTelegramID:
		return "Hello, " + firstName + "! Card allocation plans will be delivered here. Use /help for commands."
	case managerTelegramID:
		return "Hello, " + firstName + "! Approved card allocation plans will be forwarded here."
	default:
		return "This bot is private."
	}
}

// HelpReply answers /help. Only the admin gets the command list.
func HelpReply(senderID, adminTelegramID, managerTelegramID int64) (string, bool) {
	switch senderID {
	case adminTelegramID:
		return adminHelp, true
	case managerTelegramID:
		return "You will receive approved plans here. There are no commands for you.", false
	default:
		return "No commands are available to you.", false
	}
}

func RegisterBotCommands(
	b *telebot.Bot,
	adminTelegramID int64,
	managerTelegramID int64,
	baseLogger *logrus.Entry,
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /start command")
		return c.Send(StartReply(c.Sender().ID, adminTelegramID, managerTelegramID, strings.TrimSpace(c.Sender().FirstName)))
	})

	b.Handle("/help", func(c telebot.Context) error {
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /help command")
		text, markdown := HelpReply(c.Sender().ID, adminTelegramID, managerTelegramID)
		if markdown {
			return c.Send(text, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		}
		return c.Send(text)
	})
}
