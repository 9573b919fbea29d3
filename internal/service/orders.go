package service

import (
	"context"
	"errors"

	"github.com/marudor/marudor-liefert/internal/models"
)

// Orders manages the orders of users.
type Orders struct {
	store Store
	now   Clock
}

func NewOrders(store Store, now Clock) *Orders {
	return &Orders{store: store, now: now}
}

// Draft is an order about to be written. Existing is the order already
// stored for the pair, if any.
type Draft struct {
	User        *models.User
	Opportunity *models.Opportunity
	Existing    *models.Order
}

// Begin checks that the user is known and the trip still takes orders.
// Nothing is written. It returns ErrNotFound for unknown users or trips and
// ErrClosed for trips in the past.
func (s *Orders) Begin(ctx context.Context, telegramUserID, opportunityID int64) (*Draft, error) {
	user, err := s.store.UserByTelegramID(ctx, telegramUserID)
	if err != nil {
		return nil, err
	}
	op, err := s.openOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, err
	}

	d := &Draft{User: user, Opportunity: op}
	existing, err := s.store.Order(ctx, user.ID, op.ID)
	switch {
	case err == nil:
		d.Existing = existing
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return d, nil
}

// Save stores the text as the user's only order for the trip, replacing an
// earlier one. The trip may have been cancelled or passed since Begin, so it
// is checked again: ErrNotFound and ErrClosed mean nothing was written.
func (s *Orders) Save(ctx context.Context, userID, opportunityID int64, text string) (*models.Order, error) {
	if _, err := s.openOpportunity(ctx, opportunityID); err != nil {
		return nil, err
	}
	o := &models.Order{UserID: userID, OpportunityID: opportunityID, OrderText: text}
	if err := s.store.SaveOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Orders) openOpportunity(ctx context.Context, id int64) (*models.Opportunity, error) {
	op, err := s.store.Opportunity(ctx, id)
	if err != nil {
		return nil, err
	}
	if op.Date.Before(models.Today(s.now())) {
		return nil, ErrClosed
	}
	return op, nil
}

// Open returns the orders of a user for trips from today on. Unknown users
// have none.
func (s *Orders) Open(ctx context.Context, telegramUserID int64) ([]models.UserOrder, error) {
	user, err := s.store.UserByTelegramID(ctx, telegramUserID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.store.OpenOrdersForUser(ctx, user.ID, models.Today(s.now()))
}
