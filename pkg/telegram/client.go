package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client posts alerts into a single chat.
type Client struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64
}

func NewClient(token string, chatID int64) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &Client{
		Bot:    bot,
		ChatID: chatID,
	}, nil
}

// maxMessage is Telegram's per-message text limit.
const maxMessage = 4096

func (c *Client) Notify(text string) error {
	msg := tgbotapi.NewMessage(c.ChatID, truncate(text, maxMessage))
	msg.DisableWebPagePreview = true
	_, err := c.Bot.Send(msg)
	return err
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
