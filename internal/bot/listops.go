package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/marudor/marudor-liefert/internal/session"
)

func (b *Bot) cmdListOpportunities(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireOperator(msg) {
		return
	}
	ops, err := b.opportunities.Upcoming(ctx)
	if err != nil {
		b.fail(msg.Chat.ID, err, "failed to list opportunities")
		return
	}
	b.replyHTMLPages(msg.Chat.ID, listOpportunitiesText(ops))
}

func (b *Bot) cmdShowOrders(ctx context.Context, msg *tgbotapi.Message, opportunityID int64) {
	if !b.requireOperator(msg) {
		return
	}
	op, lines, err := b.opportunities.Orders(ctx, opportunityID)
	if isNotFound(err) {
		b.reply(msg.Chat.ID, textNoSuchTrip)
		return
	}
	if err != nil {
		b.fail(msg.Chat.ID, err, "failed to list orders")
		return
	}
	b.replyHTMLPages(msg.Chat.ID, showOrdersText(op, lines))
}

func (b *Bot) cmdDeleteOpportunity(ctx context.Context, msg *tgbotapi.Message, opportunityID int64) {
	chatID := msg.Chat.ID
	if !b.requireOperator(msg) {
		return
	}
	op, err := b.opportunities.Get(ctx, opportunityID)
	if isNotFound(err) {
		b.reply(chatID, textNoSuchTrip)
		return
	}
	if err != nil {
		b.fail(chatID, err, "failed to load opportunity")
		return
	}

	prompt, ok := b.send(withKeyboard(html(tgbotapi.NewMessage(chatID, confirmDeleteText(op))), deleteConfirmKeyboard()))
	if !ok {
		return
	}
	b.put(ctx, chatID, session.Deletion(op.ID, prompt.MessageID))
}

func (b *Bot) handleDeletionConfirmation(ctx context.Context, chatID int64, choice string, sess session.Session) {
	data := *sess.Deletion

	if choice != callbackDeleteConfirm {
		if b.clear(ctx, chatID) {
			b.edit(chatID, data.MessageID, textTripKept)
		}
		return
	}

	op, voided, err := b.opportunities.Cancel(ctx, data.OpportunityID)
	switch {
	case isNotFound(err):
		if b.clear(ctx, chatID) {
			b.edit(chatID, data.MessageID, textNoSuchTrip)
		}
		return
	case err != nil:
		b.fail(chatID, err, "failed to delete opportunity")
		return
	}
	b.log.Info().Int64("opportunity", op.ID).Int("orders", voided).Msg("opportunity cancelled")

	if b.clear(ctx, chatID) {
		b.edit(chatID, data.MessageID, textTripRemoved)
	}
}
