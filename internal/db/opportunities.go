package db

import (
	"context"
	"fmt"

	"github.com/marudor/marudor-liefert/internal/models"
)

const opportunityColumns = `id, city, date, created_at, updated_at`

// CreateOpportunity stores a new trip and sets its ID
func (db *DB) CreateOpportunity(ctx context.Context, op *models.Opportunity) error {
	err := db.conn.QueryRowxContext(ctx, db.conn.Rebind(
		`INSERT INTO opportunities (city, date) VALUES (?, ?) RETURNING id`),
		op.City, op.Date,
	).Scan(&op.ID)
	if err != nil {
		return fmt.Errorf("create opportunity: %w", err)
	}
	return nil
}

// Opportunity retrieves a trip by ID
func (db *DB) Opportunity(ctx context.Context, id int64) (*models.Opportunity, error) {
	var op models.Opportunity
	if err := db.get(ctx, &op, `SELECT `+opportunityColumns+` FROM opportunities WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &op, nil
}

// UpcomingOpportunities returns all trips on or after from, earliest first
func (db *DB) UpcomingOpportunities(ctx context.Context, from models.Date) ([]models.Opportunity, error) {
	ops := []models.Opportunity{}
	err := db.selectAll(ctx, &ops,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE date >= ? ORDER BY date ASC, id ASC`, from)
	if err != nil {
		return nil, fmt.Errorf("list upcoming opportunities: %w", err)
	}
	return ops, nil
}

// UpcomingOpportunitiesInCity returns the trips to city on or after from, earliest first
func (db *DB) UpcomingOpportunitiesInCity(ctx context.Context, city string, from models.Date) ([]models.Opportunity, error) {
	ops := []models.Opportunity{}
	err := db.selectAll(ctx, &ops,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE city = ? AND date >= ? ORDER BY date ASC, id ASC`,
		city, from)
	if err != nil {
		return nil, fmt.Errorf("list opportunities in %q: %w", city, err)
	}
	return ops, nil
}

// OpportunityCities returns the distinct cities of trips on or after from
func (db *DB) OpportunityCities(ctx context.Context, from models.Date) ([]string, error) {
	cities := []string{}
	if err := db.selectAll(ctx, &cities, `SELECT DISTINCT city FROM opportunities WHERE date >= ?`, from); err != nil {
		return nil, fmt.Errorf("list opportunity cities: %w", err)
	}
	return cities, nil
}

// DeleteOpportunity removes a trip together with its orders and returns the
// chat IDs of the users whose orders were removed
func (db *DB) DeleteOpportunity(ctx context.Context, id int64) ([]int64, error) {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	recipients := []int64{}
	err = tx.SelectContext(ctx, &recipients, tx.Rebind(
		`SELECT u.telegram_user_id FROM orders o
		 JOIN users u ON u.id = o.user_id
		 WHERE o.opportunity_id = ? ORDER BY o.id`), id)
	if err != nil {
		return nil, fmt.Errorf("collect order owners: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM orders WHERE opportunity_id = ?`), id); err != nil {
		return nil, fmt.Errorf("delete orders: %w", err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM opportunities WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("delete opportunity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return recipients, nil
}
