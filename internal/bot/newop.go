package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/marudor/marudor-liefert/internal/dates"
	"github.com/marudor/marudor-liefert/internal/service"
	"github.com/marudor/marudor-liefert/internal/session"
)

func (b *Bot) cmdNewOpportunity(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireOperator(msg) {
		return
	}
	b.askDate(ctx, msg.Chat.ID, textAskDate)
}

func (b *Bot) askDate(ctx context.Context, chatID int64, text string) {
	if !b.put(ctx, chatID, session.NewOpportunity(session.StateAwaitingDate, session.NewOpportunityData{})) {
		return
	}
	b.send(withRemovedKeyboard(html(tgbotapi.NewMessage(chatID, text))))
}

func (b *Bot) handleNewOpportunity(ctx context.Context, msg *tgbotapi.Message, sess session.Session) {
	switch sess.State {
	case session.StateAwaitingDate:
		b.handleDate(ctx, msg, sess)
	case session.StateAwaitingCity:
		b.handleCity(ctx, msg, sess)
	case session.StateConfirmCity:
		b.reply(msg.Chat.ID, textUseYesNoButtons)
	case session.StateWhatNext:
		b.handleNextAction(ctx, msg)
	}
}

func (b *Bot) handleDate(ctx context.Context, msg *tgbotapi.Message, sess session.Session) {
	chatID := msg.Chat.ID
	d, err := b.opportunities.ParseDate(msg.Text)
	switch {
	case errors.Is(err, service.ErrPastDate):
		b.reply(chatID, textNoTimeMachines)
		return
	case errors.Is(err, dates.ErrInvalid):
		b.reply(chatID, textNotADate)
		return
	case err != nil:
		b.fail(chatID, err, "failed to parse date")
		return
	}

	cities, err := b.opportunities.Cities(ctx)
	if err != nil {
		b.fail(chatID, err, "failed to load cities")
		return
	}
	data := *sess.NewOpportunity
	data.Date = d
	if !b.put(ctx, chatID, session.NewOpportunity(session.StateAwaitingCity, data)) {
		return
	}
	b.send(withKeyboard(tgbotapi.NewMessage(chatID, askCityText(d)), cityKeyboard(cities, false)))
}

func (b *Bot) handleCity(ctx context.Context, msg *tgbotapi.Message, sess session.Session) {
	chatID := msg.Chat.ID
	city := strings.TrimSpace(msg.Text)
	if city == "" {
		b.reply(chatID, textAskCityAgain)
		return
	}

	subscribers, err := b.opportunities.Subscribers(ctx, city)
	if err != nil {
		b.fail(chatID, err, "failed to count users")
		return
	}

	data := *sess.NewOpportunity
	data.City = city

	if subscribers == 0 {
		prompt, ok := b.send(withKeyboard(tgbotapi.NewMessage(chatID, textNobodyLivesThere), cityConfirmKeyboard()))
		if !ok {
			return
		}
		data.ConfirmMessageID = prompt.MessageID
		b.put(ctx, chatID, session.NewOpportunity(session.StateConfirmCity, data))
		return
	}

	if !b.saveOpportunity(ctx, chatID, data) {
		return
	}
	b.send(withKeyboard(tgbotapi.NewMessage(chatID, tripSavedText(subscribers)), nextActionKeyboard()))
}

func (b *Bot) handleCityConfirmation(ctx context.Context, chatID int64, choice string, sess session.Session) {
	data := *sess.NewOpportunity

	if choice == callbackCityConfirm {
		if !b.saveOpportunity(ctx, chatID, data) {
			return
		}
		b.edit(chatID, data.ConfirmMessageID, textTripSaved)
	} else {
		if !b.put(ctx, chatID, session.NewOpportunity(session.StateWhatNext, session.NewOpportunityData{})) {
			return
		}
		b.edit(chatID, data.ConfirmMessageID, textTripDiscarded)
	}
	b.send(withKeyboard(tgbotapi.NewMessage(chatID, textWhatNext), nextActionKeyboard()))
}

// saveOpportunity stores the staged trip and moves on to WhatNext. The
// announcement to the city runs in the background.
func (b *Bot) saveOpportunity(ctx context.Context, chatID int64, data session.NewOpportunityData) bool {
	op, err := b.opportunities.Create(ctx, data.Date, data.City)
	switch {
	case errors.Is(err, service.ErrPastDate):
		// The day ended while the operator was typing.
		b.askDate(ctx, chatID, textNoTimeMachines)
		return false
	case err != nil:
		b.fail(chatID, err, "failed to save opportunity")
		return false
	}
	b.log.Info().Int64("opportunity", op.ID).Str("city", op.City).Str("date", op.Date.String()).
		Msg("opportunity created")
	return b.put(ctx, chatID, session.NewOpportunity(session.StateWhatNext, session.NewOpportunityData{}))
}

func (b *Bot) handleNextAction(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch strings.TrimSpace(msg.Text) {
	case textNextTrip:
		b.askDate(ctx, chatID, textAnotherTrip)
	case textFinished:
		if !b.clear(ctx, chatID) {
			return
		}
		b.send(withRemovedKeyboard(tgbotapi.NewMessage(chatID, textDone)))
	default:
		b.send(withKeyboard(tgbotapi.NewMessage(chatID, textWhatNext), nextActionKeyboard()))
	}
}
