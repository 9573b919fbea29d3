package db

import (
	"context"
	"fmt"

	"github.com/marudor/marudor-liefert/internal/models"
)

const orderColumns = `id, user_id, opportunity_id, order_text, created_at, updated_at`

// Order retrieves the order of a user for a trip
func (db *DB) Order(ctx context.Context, userID, opportunityID int64) (*models.Order, error) {
	var o models.Order
	err := db.get(ctx, &o,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? AND opportunity_id = ?`,
		userID, opportunityID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// SaveOrder inserts the order or replaces the text of the existing one for
// the same user and trip, and sets its ID
func (db *DB) SaveOrder(ctx context.Context, o *models.Order) error {
	err := db.conn.QueryRowxContext(ctx, db.conn.Rebind(
		`INSERT INTO orders (user_id, opportunity_id, order_text) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, opportunity_id) DO UPDATE SET
			order_text = excluded.order_text,
			updated_at = CURRENT_TIMESTAMP
		 RETURNING id`),
		o.UserID, o.OpportunityID, o.OrderText,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

// OrdersForOpportunity returns every order of a trip with the ordering user
func (db *DB) OrdersForOpportunity(ctx context.Context, opportunityID int64) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	err := db.selectAll(ctx, &lines,
		`SELECT o.id, o.user_id, o.opportunity_id, o.order_text, o.created_at, o.updated_at,
		        u.telegram_user_id, u.telegram_username
		 FROM orders o JOIN users u ON u.id = o.user_id
		 WHERE o.opportunity_id = ? ORDER BY o.id`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list orders of opportunity %d: %w", opportunityID, err)
	}
	return lines, nil
}

// OpenOrdersForUser returns the orders of a user for trips on or after from
func (db *DB) OpenOrdersForUser(ctx context.Context, userID int64, from models.Date) ([]models.UserOrder, error) {
	orders := []models.UserOrder{}
	err := db.selectAll(ctx, &orders,
		`SELECT o.id, o.user_id, o.opportunity_id, o.order_text, o.created_at, o.updated_at,
		        p.city, p.date
		 FROM orders o JOIN opportunities p ON p.id = o.opportunity_id
		 WHERE o.user_id = ? AND p.date >= ? ORDER BY p.date, o.id`, userID, from)
	if err != nil {
		return nil, fmt.Errorf("list open orders of user %d: %w", userID, err)
	}
	return orders, nil
}
