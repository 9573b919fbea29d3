// Package notify tells users about new and cancelled trips without holding
// up the conversation that caused it.
package notify

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marudor/marudor-liefert/internal/models"
)

// Message is one chat message to deliver.
type Message struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Outbox delivers a single message.
type Outbox interface {
	Deliver(ctx context.Context, m Message) error
}

// Recipients looks up who lives in a city.
type Recipients interface {
	TelegramIDsInCity(ctx context.Context, city string) ([]int64, error)
}

const deliveryTimeout = 15 * time.Second

// Notifier runs notification jobs on background goroutines, at most workers
// at a time. Delivery errors are logged and dropped.
type Notifier struct {
	recipients Recipients
	out        Outbox
	log        zerolog.Logger

	sem     chan struct{}
	pending sync.WaitGroup
}

func New(recipients Recipients, out Outbox, workers int, log zerolog.Logger) *Notifier {
	if workers < 1 {
		workers = 1
	}
	return &Notifier{
		recipients: recipients,
		out:        out,
		log:        log.With().Str("component", "notify").Logger(),
		sem:        make(chan struct{}, workers),
	}
}

func (n *Notifier) submit(name string, job func(ctx context.Context)) {
	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		n.sem <- struct{}{}
		defer func() { <-n.sem }()
		defer func() {
			if r := recover(); r != nil {
				n.log.Error().Str("job", name).Interface("panic", r).Msg("notification job panicked")
			}
		}()
		job(context.Background())
	}()
}

// Wait blocks until every submitted job has finished.
func (n *Notifier) Wait() {
	n.pending.Wait()
}

// OpportunityCreated announces the trip to everyone living in its city.
func (n *Notifier) OpportunityCreated(op models.Opportunity) {
	n.submit("announce", func(ctx context.Context) {
		ids, err := n.recipients.TelegramIDsInCity(ctx, op.City)
		if err != nil {
			n.log.Error().Err(err).Int64("opportunity", op.ID).Msg("failed to look up recipients")
			return
		}
		text := AnnouncementText(op)
		n.deliverAll(ctx, ids, text)
		n.log.Info().Int64("opportunity", op.ID).Str("city", op.City).Int("recipients", len(ids)).
			Msg("announced opportunity")
	})
}

// OpportunityCancelled tells the given chats that their order is void.
func (n *Notifier) OpportunityCancelled(op models.Opportunity, chatIDs []int64) {
	n.submit("cancel", func(ctx context.Context) {
		n.deliverAll(ctx, chatIDs, CancellationText(op))
		n.log.Info().Int64("opportunity", op.ID).Int("recipients", len(chatIDs)).
			Msg("announced cancellation")
	})
}

func (n *Notifier) deliverAll(ctx context.Context, chatIDs []int64, text string) {
	for _, id := range chatIDs {
		dctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		err := n.out.Deliver(dctx, Message{ChatID: id, Text: text, ParseMode: "HTML"})
		cancel()
		if err != nil {
			n.log.Warn().Err(err).Int64("chat", id).Msg("failed to deliver notification")
		}
	}
}

// AnnouncementText is sent to users when a trip to their city is entered.
func AnnouncementText(op models.Opportunity) string {
	return fmt.Sprintf("@marudor ist am %s in %s.\n\n"+
		"Wenn du Franzbrötchen bestellen möchtest, klicke hier: /order_%d",
		op.Date.Readable(), html.EscapeString(op.City), op.ID)
}

// CancellationText is sent to users whose order was voided.
func CancellationText(op models.Opportunity) string {
	return fmt.Sprintf("@marudor hat seine Reise am %s nach <b>%s</b> leider abgesagt.\n"+
		"Deine Bestellung wurde storniert.", op.Date.Readable(), html.EscapeString(op.City))
}
