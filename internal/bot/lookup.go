package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// lookupCity answers free text outside a conversation with the upcoming
// trips to the city of that name.
func (b *Bot) lookupCity(ctx context.Context, msg *tgbotapi.Message) {
	city := strings.TrimSpace(msg.Text)
	if city == "" {
		return
	}
	ops, err := b.opportunities.UpcomingInCity(ctx, city)
	if err != nil {
		b.fail(msg.Chat.ID, err, "failed to look up city")
		return
	}
	b.replyHTML(msg.Chat.ID, cityLookupText(city, ops))
}
