package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/marudor/marudor-liefert/internal/service"
	"github.com/marudor/marudor-liefert/internal/session"
)

// cmdOrder starts an order. Unknown users, unknown trips and trips in the
// past get no answer at all.
func (b *Bot) cmdOrder(ctx context.Context, msg *tgbotapi.Message, opportunityID int64) {
	chatID := msg.Chat.ID
	draft, err := b.orders.Begin(ctx, msg.From.ID, opportunityID)
	switch {
	case isNotFound(err), errors.Is(err, service.ErrClosed):
		b.log.Debug().Err(err).Int64("user", msg.From.ID).Int64("opportunity", opportunityID).
			Msg("ignoring order link")
		return
	case err != nil:
		b.fail(chatID, err, "failed to start order")
		return
	}

	if !b.put(ctx, chatID, session.Order(draft.User.ID, draft.Opportunity.ID)) {
		return
	}
	b.replyHTML(chatID, orderPromptText(draft.Opportunity, draft.Existing))
	if b.orderHint != "" {
		hint := tgbotapi.NewMessage(chatID, b.orderHint)
		hint.DisableWebPagePreview = true
		b.send(hint)
	}
}

func (b *Bot) handleOrderText(ctx context.Context, msg *tgbotapi.Message, sess session.Session) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		b.reply(chatID, textAskOrderAgain)
		return
	}

	o, err := b.orders.Save(ctx, sess.Order.UserID, sess.Order.OpportunityID, text)
	switch {
	case isNotFound(err), errors.Is(err, service.ErrClosed):
		b.log.Info().Err(err).Int64("opportunity", sess.Order.OpportunityID).Msg("order for unavailable trip dropped")
		if b.clear(ctx, chatID) {
			b.reply(chatID, textTripUnavailable)
		}
		return
	case err != nil:
		b.fail(chatID, err, "failed to save order")
		return
	}
	if !b.clear(ctx, chatID) {
		return
	}
	b.log.Info().Int64("order", o.ID).Int64("opportunity", o.OpportunityID).Msg("order saved")
	b.reply(chatID, textOrderSaved)
}

func (b *Bot) cmdMyOrders(ctx context.Context, msg *tgbotapi.Message) {
	orders, err := b.orders.Open(ctx, msg.From.ID)
	if err != nil {
		b.fail(msg.Chat.ID, err, "failed to load orders")
		return
	}
	b.replyHTMLPages(msg.Chat.ID, myOrdersText(orders))
}
