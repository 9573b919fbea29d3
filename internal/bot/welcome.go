package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/marudor/marudor-liefert/internal/session"
)

func (b *Bot) cmdStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.isOperator(msg.From) {
		b.replyHTML(chatID, operatorGreeting())
		return
	}

	user, err := b.users.Get(ctx, msg.From.ID)
	if err != nil {
		b.fail(chatID, err, "failed to load user")
		return
	}
	if user == nil {
		b.askHometown(ctx, chatID, textWelcome, true)
		return
	}

	ops, err := b.opportunities.UpcomingInCity(ctx, user.Hometown)
	if err != nil {
		b.fail(chatID, err, "failed to load opportunities")
		return
	}
	b.replyHTML(chatID, welcomeBackText(msg.From.UserName, user.Hometown, ops))
}

func (b *Bot) cmdChangeHometown(ctx context.Context, msg *tgbotapi.Message) {
	b.askHometown(ctx, msg.Chat.ID, textAskHometown, false)
}

func (b *Bot) askHometown(ctx context.Context, chatID int64, text string, newUser bool) {
	cities, err := b.opportunities.Cities(ctx)
	if err != nil {
		b.fail(chatID, err, "failed to load cities")
		return
	}
	if !b.put(ctx, chatID, session.Welcome(newUser)) {
		return
	}
	b.send(withKeyboard(tgbotapi.NewMessage(chatID, text), cityKeyboard(cities, true)))
}

func (b *Bot) handleHometown(ctx context.Context, msg *tgbotapi.Message, sess session.Session) {
	chatID := msg.Chat.ID

	var hometown string
	switch {
	case msg.Location != nil:
		if b.geocoder == nil {
			b.reply(chatID, textLocationNotWorking)
			return
		}
		city, err := b.geocoder.City(ctx, msg.Location.Latitude, msg.Location.Longitude)
		if err != nil {
			b.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to resolve location")
			b.reply(chatID, textLocationNotWorking)
			return
		}
		if city == "" {
			b.reply(chatID, textLocationNotFound)
			return
		}
		hometown = city
	default:
		hometown = strings.TrimSpace(msg.Text)
	}
	if hometown == "" {
		b.reply(chatID, textAskHometownAgain)
		return
	}

	user, err := b.users.SetHometown(ctx, msg.From.ID, msg.From.UserName, hometown)
	if err != nil {
		b.fail(chatID, err, "failed to save hometown")
		return
	}
	ops, err := b.opportunities.UpcomingInCity(ctx, user.Hometown)
	if err != nil {
		b.fail(chatID, err, "failed to load opportunities")
		return
	}
	if !b.clear(ctx, chatID) {
		return
	}

	text := hometownSavedText(user.Hometown, ops)
	if sess.Welcome.NewUser {
		text += commandIntro(false)
	}
	b.log.Info().Int64("user", msg.From.ID).Str("hometown", user.Hometown).Msg("hometown saved")
	b.send(withRemovedKeyboard(html(tgbotapi.NewMessage(chatID, text))))
}
