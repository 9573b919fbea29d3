// Package session keeps the transient per-chat state of a running conversation.
//
// A Session is a tagged union: Flow names the conversation, State the step
// within it, and exactly the payload belonging to Flow is set. The zero
// Session means no conversation is active.
package session

import (
	"context"
	"errors"

	"github.com/marudor/marudor-liefert/internal/models"
)

type Flow string

const (
	FlowNone              Flow = ""
	FlowWelcome           Flow = "welcome"
	FlowNewOpportunity    Flow = "newop"
	FlowOrder             Flow = "order"
	FlowListOpportunities Flow = "listops"
)

type State string

const (
	StateIdle State = ""

	// Welcome
	StateAwaitingHometown State = "awaiting_hometown"

	// New opportunity
	StateAwaitingDate State = "awaiting_date"
	StateAwaitingCity State = "awaiting_city"
	StateConfirmCity  State = "confirm_city"
	StateWhatNext     State = "what_next"

	// Order
	StateAwaitingOrderText State = "awaiting_order_text"

	// List opportunities
	StateConfirmDeletion State = "confirm_deletion"
)

type Session struct {
	Flow  Flow  `json:"flow"`
	State State `json:"state"`

	Welcome        *WelcomeData        `json:"welcome,omitempty"`
	NewOpportunity *NewOpportunityData `json:"new_opportunity,omitempty"`
	Order          *OrderData          `json:"order,omitempty"`
	Deletion       *DeletionData       `json:"deletion,omitempty"`
}

// WelcomeData remembers whether the flow was started by a first /start, in
// which case the command overview is shown once at the end.
type WelcomeData struct {
	NewUser bool `json:"new_user"`
}

// NewOpportunityData is the trip being entered by the operator.
type NewOpportunityData struct {
	Date models.Date `json:"date,omitempty"`
	City string      `json:"city,omitempty"`
	// ConfirmMessageID is the yes/no prompt shown for a city without users.
	ConfirmMessageID int `json:"confirm_message_id,omitempty"`
}

// OrderData identifies the order being written. Nothing is stored before
// the text arrives.
type OrderData struct {
	UserID        int64 `json:"user_id"`
	OpportunityID int64 `json:"opportunity_id"`
}

type DeletionData struct {
	OpportunityID int64 `json:"opportunity_id"`
	MessageID     int   `json:"message_id"`
}

func Welcome(newUser bool) Session {
	return Session{Flow: FlowWelcome, State: StateAwaitingHometown, Welcome: &WelcomeData{NewUser: newUser}}
}

func NewOpportunity(state State, data NewOpportunityData) Session {
	return Session{Flow: FlowNewOpportunity, State: state, NewOpportunity: &data}
}

func Order(userID, opportunityID int64) Session {
	return Session{
		Flow:  FlowOrder,
		State: StateAwaitingOrderText,
		Order: &OrderData{UserID: userID, OpportunityID: opportunityID},
	}
}

func Deletion(opportunityID int64, messageID int) Session {
	return Session{
		Flow:     FlowListOpportunities,
		State:    StateConfirmDeletion,
		Deletion: &DeletionData{OpportunityID: opportunityID, MessageID: messageID},
	}
}

// Active reports whether a conversation is in progress.
func (s Session) Active() bool {
	return s.Flow != FlowNone
}

var ErrMalformed = errors.New("session: payload does not match flow")

// ErrCorrupt is returned by stores for a stored session that cannot be read
// back. The chat's session is unusable and should be cleared.
var ErrCorrupt = errors.New("session: stored session is corrupt")

// Validate checks that the payload matches the flow.
func (s Session) Validate() error {
	switch s.Flow {
	case FlowNone:
		if s.Welcome != nil || s.NewOpportunity != nil || s.Order != nil || s.Deletion != nil {
			return ErrMalformed
		}
	case FlowWelcome:
		if s.Welcome == nil || s.State != StateAwaitingHometown {
			return ErrMalformed
		}
	case FlowNewOpportunity:
		if s.NewOpportunity == nil {
			return ErrMalformed
		}
		switch s.State {
		case StateAwaitingDate, StateAwaitingCity, StateConfirmCity, StateWhatNext:
		default:
			return ErrMalformed
		}
	case FlowOrder:
		if s.Order == nil || s.State != StateAwaitingOrderText {
			return ErrMalformed
		}
	case FlowListOpportunities:
		if s.Deletion == nil || s.State != StateConfirmDeletion {
			return ErrMalformed
		}
	default:
		return ErrMalformed
	}
	return nil
}

// Store holds one session per chat.
type Store interface {
	// Get returns the zero Session when the chat has none.
	Get(ctx context.Context, chatID int64) (Session, error)
	Put(ctx context.Context, chatID int64, s Session) error
	Clear(ctx context.Context, chatID int64) error
}
