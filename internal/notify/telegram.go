package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI used for delivery.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramOutbox sends messages straight through the Bot API.
type TelegramOutbox struct {
	api Sender
}

func NewTelegramOutbox(api Sender) *TelegramOutbox {
	return &TelegramOutbox{api: api}
}

func (o *TelegramOutbox) Deliver(_ context.Context, m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ParseMode = m.ParseMode
	_, err := o.api.Send(msg)
	return err
}
