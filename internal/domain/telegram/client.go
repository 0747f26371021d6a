package telegram

import (
	"errors"
	"strings"

	"gopkg.in/telebot.v3"
)

// ErrRecipientUnreachable means the chat exists in config but the bot cannot write to it,
// usually because the user never pressed /start or blocked the bot.
var ErrRecipientUnreachable = errors.New("telegram recipient unreachable")

// MaxMessageLength is Telegram's limit for one text message, in characters.
const MaxMessageLength = 4096

// Client sends plan reports and confirmations to chats.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}

// SplitMessage breaks text into chunks of at most limit runes, cutting on line breaks
// where possible so ledger lines stay intact.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		if curLen+len(runes) > limit {
			flush()
		}
		cur.WriteString(string(runes))
		curLen += len(runes)
	}
	flush()
	return chunks
}
