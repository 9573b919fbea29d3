package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marudor/marudor-liefert/internal/dates"
	"github.com/marudor/marudor-liefert/internal/models"
)

// Opportunities manages the operator's trips.
type Opportunities struct {
	store     Store
	announcer Announcer
	now       Clock
}

func NewOpportunities(store Store, announcer Announcer, now Clock) *Opportunities {
	return &Opportunities{store: store, announcer: announcer, now: now}
}

func (s *Opportunities) today() models.Date {
	return models.Today(s.now())
}

// ParseDate reads a trip date typed by the operator. It returns
// dates.ErrInvalid for text that is no date and ErrPastDate for days before
// today.
func (s *Opportunities) ParseDate(text string) (models.Date, error) {
	now := s.now()
	d, err := dates.Parse(text, now)
	if err != nil {
		return models.Date{}, err
	}
	if dates.IsPast(d, now) {
		return d, ErrPastDate
	}
	return d, nil
}

// Subscribers returns how many users live in city.
func (s *Opportunities) Subscribers(ctx context.Context, city string) (int, error) {
	return s.store.CountUsersInCity(ctx, strings.TrimSpace(city))
}

// Create stores the trip and hands it to the announcer, which notifies the
// city in the background.
func (s *Opportunities) Create(ctx context.Context, date models.Date, city string) (*models.Opportunity, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, ErrEmptyCity
	}
	if date.Before(s.today()) {
		return nil, ErrPastDate
	}
	op := &models.Opportunity{City: city, Date: date}
	if err := s.store.CreateOpportunity(ctx, op); err != nil {
		return nil, err
	}
	s.announcer.OpportunityCreated(*op)
	return op, nil
}

func (s *Opportunities) Get(ctx context.Context, id int64) (*models.Opportunity, error) {
	return s.store.Opportunity(ctx, id)
}

// Upcoming returns the trips from today on, earliest first.
func (s *Opportunities) Upcoming(ctx context.Context) ([]models.Opportunity, error) {
	return s.store.UpcomingOpportunities(ctx, s.today())
}

// UpcomingInCity returns the trips to city from today on, earliest first.
func (s *Opportunities) UpcomingInCity(ctx context.Context, city string) ([]models.Opportunity, error) {
	return s.store.UpcomingOpportunitiesInCity(ctx, strings.TrimSpace(city), s.today())
}

// Orders returns the orders placed for a trip.
func (s *Opportunities) Orders(ctx context.Context, id int64) (*models.Opportunity, []models.OrderLine, error) {
	op, err := s.store.Opportunity(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.store.OrdersForOpportunity(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return op, lines, nil
}

// Cancel deletes the trip and its orders in one transaction and then tells
// everyone who had ordered. It returns the deleted trip and the number of
// voided orders.
func (s *Opportunities) Cancel(ctx context.Context, id int64) (*models.Opportunity, int, error) {
	op, err := s.store.Opportunity(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	recipients, err := s.store.DeleteOpportunity(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("cancel opportunity %d: %w", id, err)
	}
	if len(recipients) > 0 {
		s.announcer.OpportunityCancelled(*op, recipients)
	}
	return op, len(recipients), nil
}
