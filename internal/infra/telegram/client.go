package telegram

import (
	"errors"
	"fmt"

	domainTelegram "card_float_planner/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter is the telebot-backed domain Client.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage writes text to a private chat with link previews off. Errors meaning the
// chat cannot be written to wrap ErrRecipientUnreachable.
func (a *TelebotAdapter) SendMessage(chatID int64, text string, opts *telebot.SendOptions) error {
	sendOpts := telebot.SendOptions{}
	if opts != nil {
		sendOpts = *opts
	}
	sendOpts.DisableWebPagePreview = true

	if _, err := a.bot.Send(telebot.ChatID(chatID), text, &sendOpts); err != nil {
		if unreachable(err) {
			return fmt.Errorf("chat %d: %w: %v", chatID, domainTelegram.ErrRecipientUnreachable, err)
		}
		return fmt.Errorf("chat %d: %w", chatID, err)
	}
	return nil
}

func unreachable(err error) bool {
	return errors.Is(err, telebot.ErrBlockedByUser) ||
		errors.Is(err, telebot.ErrChatNotFound) ||
		errors.Is(err, telebot.ErrUserIsDeactivated)
}
