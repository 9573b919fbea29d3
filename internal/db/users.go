package db

import (
	"context"
	"fmt"

	"github.com/marudor/marudor-liefert/internal/models"
)

const userColumns = `id, telegram_user_id, telegram_username, hometown, created_at, updated_at`

// UpsertUser creates the user or updates handle and hometown of an existing one
func (db *DB) UpsertUser(ctx context.Context, telegramUserID int64, username, hometown string) (*models.User, error) {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(
		`INSERT INTO users (telegram_user_id, telegram_username, hometown) VALUES (?, ?, ?)
		 ON CONFLICT (telegram_user_id) DO UPDATE SET
			telegram_username = excluded.telegram_username,
			hometown = excluded.hometown,
			updated_at = CURRENT_TIMESTAMP`),
		telegramUserID, username, hometown,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user %d: %w", telegramUserID, err)
	}
	return db.UserByTelegramID(ctx, telegramUserID)
}

// UserByTelegramID retrieves a user by their Telegram ID
func (db *DB) UserByTelegramID(ctx context.Context, telegramUserID int64) (*models.User, error) {
	var u models.User
	err := db.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE telegram_user_id = ?`, telegramUserID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CountUsersInCity returns how many users live in city
func (db *DB) CountUsersInCity(ctx context.Context, city string) (int, error) {
	var n int
	if err := db.get(ctx, &n, `SELECT COUNT(*) FROM users WHERE hometown = ?`, city); err != nil {
		return 0, fmt.Errorf("count users in %q: %w", city, err)
	}
	return n, nil
}

// TelegramIDsInCity returns the chat IDs of everyone living in city
func (db *DB) TelegramIDsInCity(ctx context.Context, city string) ([]int64, error) {
	ids := []int64{}
	if err := db.selectAll(ctx, &ids, `SELECT telegram_user_id FROM users WHERE hometown = ?`, city); err != nil {
		return nil, fmt.Errorf("list users in %q: %w", city, err)
	}
	return ids, nil
}

// Hometowns returns every distinct non-empty hometown
func (db *DB) Hometowns(ctx context.Context) ([]string, error) {
	cities := []string{}
	if err := db.selectAll(ctx, &cities, `SELECT DISTINCT hometown FROM users WHERE hometown <> ''`); err != nil {
		return nil, fmt.Errorf("list hometowns: %w", err)
	}
	return cities, nil
}
