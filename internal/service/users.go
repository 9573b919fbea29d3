package service

import (
	"context"
	"errors"
	"strings"

	"github.com/marudor/marudor-liefert/internal/models"
)

// Users manages registrations.
type Users struct {
	store Store
}

func NewUsers(store Store) *Users {
	return &Users{store: store}
}

// Get returns the user or nil if they never registered.
func (s *Users) Get(ctx context.Context, telegramUserID int64) (*models.User, error) {
	u, err := s.store.UserByTelegramID(ctx, telegramUserID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// SetHometown registers the user or moves them to another city.
func (s *Users) SetHometown(ctx context.Context, telegramUserID int64, username, hometown string) (*models.User, error) {
	hometown = strings.TrimSpace(hometown)
	if hometown == "" {
		return nil, ErrEmptyCity
	}
	return s.store.UpsertUser(ctx, telegramUserID, username, hometown)
}
