package telegram

import (
	"strings"

	"gopkg.in/telebot.v3"
)

// maxMessageLen is the Telegram limit for one text message.
const maxMessageLen = 4096

// Messenger sends chat messages. ChatMessenger implements it; tests use fakes.
type Messenger interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}

type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// ChatMessenger posts text to a chat by id. Long texts, such as a run summary
// listing many failed rows, go out as several messages split on line breaks;
// the reply markup is attached to the last one.
type ChatMessenger struct {
	bot   sender
	limit int
}

func NewChatMessenger(b *telebot.Bot) *ChatMessenger {
	return &ChatMessenger{bot: b, limit: maxMessageLen}
}

func (m *ChatMessenger) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	parts := splitMessage(text, m.limit)
	for i, part := range parts {
		opts := &telebot.SendOptions{DisableWebPagePreview: true}
		if options != nil {
			copied := *options
			opts = &copied
		}
		if i < len(parts)-1 {
			opts.ReplyMarkup = nil
		}
		if _, err := m.bot.Send(telebot.ChatID(chatID), part, opts); err != nil {
			return err
		}
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit runes, preferring the
// last line break in the second half of each chunk.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	return append(parts, string(runes))
}
