// Package service holds the rules around trips and orders. Conversations in
// package bot call into it; it never talks to Telegram itself.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/marudor/marudor-liefert/internal/db"
	"github.com/marudor/marudor-liefert/internal/models"
)

// Store is the persistence the services need. *db.DB implements it.
type Store interface {
	UserByTelegramID(ctx context.Context, telegramUserID int64) (*models.User, error)
	UpsertUser(ctx context.Context, telegramUserID int64, username, hometown string) (*models.User, error)
	CountUsersInCity(ctx context.Context, city string) (int, error)
	Hometowns(ctx context.Context) ([]string, error)

	CreateOpportunity(ctx context.Context, op *models.Opportunity) error
	Opportunity(ctx context.Context, id int64) (*models.Opportunity, error)
	UpcomingOpportunities(ctx context.Context, from models.Date) ([]models.Opportunity, error)
	UpcomingOpportunitiesInCity(ctx context.Context, city string, from models.Date) ([]models.Opportunity, error)
	OpportunityCities(ctx context.Context, from models.Date) ([]string, error)
	DeleteOpportunity(ctx context.Context, id int64) ([]int64, error)

	Order(ctx context.Context, userID, opportunityID int64) (*models.Order, error)
	SaveOrder(ctx context.Context, o *models.Order) error
	OrdersForOpportunity(ctx context.Context, opportunityID int64) ([]models.OrderLine, error)
	OpenOrdersForUser(ctx context.Context, userID int64, from models.Date) ([]models.UserOrder, error)
}

var _ Store = (*db.DB)(nil)

// Announcer broadcasts trip changes. It must not block.
type Announcer interface {
	OpportunityCreated(op models.Opportunity)
	OpportunityCancelled(op models.Opportunity, chatIDs []int64)
}

// Clock returns the current time in the bot's time zone.
type Clock func() time.Time

// InLocation returns a Clock reading the wall clock in loc.
func InLocation(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

var (
	// ErrNotFound means the referenced user, trip or order does not exist.
	ErrNotFound = db.ErrNotFound
	// ErrPastDate means the trip date lies before today.
	ErrPastDate = errors.New("date is in the past")
	// ErrEmptyCity means no city was given.
	ErrEmptyCity = errors.New("city is empty")
	// ErrClosed means the trip is over and takes no more orders.
	ErrClosed = errors.New("opportunity is closed")
)
