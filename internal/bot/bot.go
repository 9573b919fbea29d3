// Package bot runs the Telegram conversations.
package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/marudor/marudor-liefert/internal/access"
	"github.com/marudor/marudor-liefert/internal/service"
	"github.com/marudor/marudor-liefert/internal/session"
)

// Sender is the part of *tgbotapi.BotAPI the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Geocoder turns a shared location into a city name. An empty name means
// nothing was found.
type Geocoder interface {
	City(ctx context.Context, lat, lng float64) (string, error)
}

type Services struct {
	Users         *service.Users
	Opportunities *service.Opportunities
	Orders        *service.Orders
}

type Config struct {
	Operators *access.Operators
	// Geocoder is optional. Without it shared locations are not accepted.
	Geocoder Geocoder
	// OrderHint is sent after the order prompt when set.
	OrderHint string
}

type Bot struct {
	api           Sender
	users         *service.Users
	opportunities *service.Opportunities
	orders        *service.Orders
	sessions      session.Store
	locks         *session.Locks
	operators     *access.Operators
	geocoder      Geocoder
	orderHint     string
	log           zerolog.Logger
}

func New(api Sender, svc Services, sessions session.Store, cfg Config, log zerolog.Logger) *Bot {
	return &Bot{
		api:           api,
		users:         svc.Users,
		opportunities: svc.Opportunities,
		orders:        svc.Orders,
		sessions:      sessions,
		locks:         session.NewLocks(),
		operators:     cfg.Operators,
		geocoder:      cfg.Geocoder,
		orderHint:     cfg.OrderHint,
		log:           log.With().Str("component", "bot").Logger(),
	}
}

// Run handles updates one at a time until ctx is done or the channel closes.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one update. Updates for the same chat are
// serialized, so it is safe to call from concurrent webhook requests.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat == nil {
			return
		}
		unlock := b.locks.Lock(msg.Chat.ID)
		defer unlock()
		b.handleMessage(ctx, msg)

	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.Message == nil || cq.Message.Chat == nil {
			b.answer(cq, "")
			return
		}
		unlock := b.locks.Lock(cq.Message.Chat.ID)
		defer unlock()
		b.handleCallback(ctx, cq)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sess, err := b.loadSession(ctx, chatID)
	if err != nil {
		b.fail(chatID, err, "failed to load session")
		return
	}

	if cmd, ok := parseCommand(msg.Text); ok {
		if cmd.name == cmdCancel {
			b.cmdCancel(ctx, msg, sess)
			return
		}
		if cmd.entry() {
			if sess.Active() {
				b.log.Debug().Int64("chat", chatID).Str("flow", string(sess.Flow)).Str("command", cmd.name).
					Msg("command replaces active conversation")
				if !b.clear(ctx, chatID) {
					return
				}
			}
			b.runCommand(ctx, msg, cmd)
			return
		}
		b.reply(chatID, textUnknownCommand)
		return
	}

	switch sess.Flow {
	case session.FlowWelcome:
		b.handleHometown(ctx, msg, sess)
	case session.FlowNewOpportunity:
		b.handleNewOpportunity(ctx, msg, sess)
	case session.FlowOrder:
		b.handleOrderText(ctx, msg, sess)
	case session.FlowListOpportunities:
		b.reply(chatID, textUseDeletionButtons)
	default:
		if msg.Text != "" {
			b.lookupCity(ctx, msg)
		}
	}
}

func (b *Bot) runCommand(ctx context.Context, msg *tgbotapi.Message, cmd command) {
	switch cmd.name {
	case cmdStart:
		b.cmdStart(ctx, msg)
	case cmdChangeHometown:
		b.cmdChangeHometown(ctx, msg)
	case cmdNewOp:
		b.cmdNewOpportunity(ctx, msg)
	case cmdListOps:
		b.cmdListOpportunities(ctx, msg)
	case cmdShowOrders:
		b.cmdShowOrders(ctx, msg, cmd.id)
	case cmdDeleteOp:
		b.cmdDeleteOpportunity(ctx, msg, cmd.id)
	case cmdOrder:
		b.cmdOrder(ctx, msg, cmd.id)
	case cmdMyOrders:
		b.cmdMyOrders(ctx, msg)
	}
}

func (b *Bot) cmdCancel(ctx context.Context, msg *tgbotapi.Message, sess session.Session) {
	if !sess.Active() {
		b.send(withRemovedKeyboard(tgbotapi.NewMessage(msg.Chat.ID, textNothingToCancel)))
		return
	}
	if !b.clear(ctx, msg.Chat.ID) {
		return
	}
	b.send(withRemovedKeyboard(tgbotapi.NewMessage(msg.Chat.ID, textCancelled)))
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	sess, err := b.loadSession(ctx, chatID)
	if err != nil {
		b.answer(cq, "")
		b.fail(chatID, err, "failed to load session")
		return
	}

	// Buttons only count on the prompt the session is waiting for. Older
	// prompts in the chat may still show theirs.
	switch {
	case sess.Flow == session.FlowNewOpportunity && sess.State == session.StateConfirmCity &&
		pressedOn(cq, sess.NewOpportunity.ConfirmMessageID) &&
		(cq.Data == callbackCityConfirm || cq.Data == callbackCityCancel):
		b.answer(cq, "")
		b.handleCityConfirmation(ctx, chatID, cq.Data, sess)

	case sess.Flow == session.FlowListOpportunities && sess.State == session.StateConfirmDeletion &&
		pressedOn(cq, sess.Deletion.MessageID) &&
		(cq.Data == callbackDeleteConfirm || cq.Data == callbackDeleteCancel):
		b.answer(cq, "")
		b.handleDeletionConfirmation(ctx, chatID, cq.Data, sess)

	default:
		b.answer(cq, textCallbackExpired)
	}
}

func pressedOn(cq *tgbotapi.CallbackQuery, promptID int) bool {
	return promptID != 0 && cq.Message.MessageID == promptID
}

func (b *Bot) isOperator(u *tgbotapi.User) bool {
	return u != nil && b.operators.Allows(u.ID, u.UserName)
}

// requireOperator replies with the rejection text for everybody else.
func (b *Bot) requireOperator(msg *tgbotapi.Message) bool {
	if b.isOperator(msg.From) {
		return true
	}
	b.log.Info().Int64("user", msg.From.ID).Str("username", msg.From.UserName).Msg("operator command rejected")
	b.reply(msg.Chat.ID, textOperatorOnly)
	return false
}

// loadSession returns the chat's session. A session that cannot be read back
// is dropped so the chat starts over instead of failing on every update.
func (b *Bot) loadSession(ctx context.Context, chatID int64) (session.Session, error) {
	sess, err := b.sessions.Get(ctx, chatID)
	if !errors.Is(err, session.ErrCorrupt) {
		return sess, err
	}
	b.log.Warn().Err(err).Int64("chat", chatID).Msg("dropping unreadable session")
	if err := b.sessions.Clear(ctx, chatID); err != nil {
		return session.Session{}, err
	}
	return session.Session{}, nil
}

func (b *Bot) put(ctx context.Context, chatID int64, s session.Session) bool {
	if err := b.sessions.Put(ctx, chatID, s); err != nil {
		b.fail(chatID, err, "failed to store session")
		return false
	}
	return true
}

func (b *Bot) clear(ctx context.Context, chatID int64) bool {
	if err := b.sessions.Clear(ctx, chatID); err != nil {
		b.fail(chatID, err, "failed to clear session")
		return false
	}
	return true
}

// fail logs err and tells the user to try again. The session is left as is.
func (b *Bot) fail(chatID int64, err error, msg string) {
	b.log.Error().Err(err).Int64("chat", chatID).Msg(msg)
	b.reply(chatID, textSomethingWentWrong)
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) replyHTML(chatID int64, text string) {
	b.send(html(tgbotapi.NewMessage(chatID, text)))
}

// replyHTMLPages sends a listing split by paginate. It stops at the first
// page that cannot be sent.
func (b *Bot) replyHTMLPages(chatID int64, pages []string) {
	for _, p := range pages {
		if _, ok := b.send(html(tgbotapi.NewMessage(chatID, p))); !ok {
			return
		}
	}
}

func (b *Bot) send(c tgbotapi.Chattable) (tgbotapi.Message, bool) {
	m, err := b.api.Send(c)
	if err != nil {
		b.log.Error().Err(err).Msg("failed to send message")
		return m, false
	}
	return m, true
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if messageID == 0 {
		b.reply(chatID, text)
		return
	}
	b.send(tgbotapi.NewEditMessageText(chatID, messageID, text))
}

func (b *Bot) answer(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, text)); err != nil {
		b.log.Warn().Err(err).Msg("failed to answer callback")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrNotFound)
}
