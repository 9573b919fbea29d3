package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marudor/marudor-liefert/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func day(s string) models.Date {
	t, err := time.ParseInLocation(models.DateLayout, s, time.Local)
	if err != nil {
		panic(err)
	}
	return models.NewDate(t)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New("mysql", "whatever")
	assert.Error(t, err)
}

func TestSQLiteDSNEnablesForeignKeys(t *testing.T) {
	tests := []struct{ in, want string }{
		{"data/bot.db", "data/bot.db?_foreign_keys=on"},
		{"file:bot.db?cache=shared", "file:bot.db?cache=shared&_foreign_keys=on"},
		{"bot.db?_foreign_keys=off", "bot.db?_foreign_keys=off"},
		{"bot.db?_fk=1", "bot.db?_fk=1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqliteDSN(tt.in), tt.in)
	}
}

func TestSaveOrderRequiresOpportunity(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	u, err := database.UpsertUser(ctx, 7, "ben", "Hamburg")
	require.NoError(t, err)

	err = database.SaveOrder(ctx, &models.Order{UserID: u.ID, OpportunityID: 4711, OrderText: "2 normale"})
	assert.Error(t, err)
}

func TestUpsertUser(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	_, err := database.UserByTelegramID(ctx, 100)
	assert.ErrorIs(t, err, ErrNotFound)

	u, err := database.UpsertUser(ctx, 100, "anna", "Hamburg")
	require.NoError(t, err)
	assert.Equal(t, int64(100), u.TelegramUserID)
	assert.Equal(t, "Hamburg", u.Hometown)

	u2, err := database.UpsertUser(ctx, 100, "anna_b", "Berlin")
	require.NoError(t, err)
	assert.Equal(t, u.ID, u2.ID)
	assert.Equal(t, "anna_b", u2.TelegramUsername)
	assert.Equal(t, "Berlin", u2.Hometown)

	n, err := database.CountUsersInCity(ctx, "Hamburg")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUsersInCity(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	for id, city := range map[int64]string{1: "Köln", 2: "Köln", 3: "Bonn"} {
		_, err := database.UpsertUser(ctx, id, "", city)
		require.NoError(t, err)
	}

	n, err := database.CountUsersInCity(ctx, "Köln")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := database.TelegramIDsInCity(ctx, "Köln")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)

	towns, err := database.Hometowns(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Köln", "Bonn"}, towns)
}

func TestUpcomingOpportunitiesExcludePast(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	for _, op := range []models.Opportunity{
		{City: "Hamburg", Date: day("2024-03-09")},
		{City: "Hamburg", Date: day("2024-03-12")},
		{City: "Berlin", Date: day("2024-03-10")},
		{City: "Leipzig", Date: day("2024-01-01")},
	} {
		op := op
		require.NoError(t, database.CreateOpportunity(ctx, &op))
		assert.NotZero(t, op.ID)
	}

	today := day("2024-03-10")

	ops, err := database.UpcomingOpportunities(ctx, today)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "Berlin", ops[0].City)
	assert.Equal(t, "2024-03-10", ops[0].Date.String())
	assert.Equal(t, "Hamburg", ops[1].City)

	inCity, err := database.UpcomingOpportunitiesInCity(ctx, "Hamburg", today)
	require.NoError(t, err)
	require.Len(t, inCity, 1)
	assert.Equal(t, "2024-03-12", inCity[0].Date.String())

	cities, err := database.OpportunityCities(ctx, today)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Berlin", "Hamburg"}, cities)
}

func TestSaveOrderUpserts(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	u, err := database.UpsertUser(ctx, 7, "ben", "Hamburg")
	require.NoError(t, err)
	op := &models.Opportunity{City: "Hamburg", Date: day("2024-03-12")}
	require.NoError(t, database.CreateOpportunity(ctx, op))

	_, err = database.Order(ctx, u.ID, op.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	first := &models.Order{UserID: u.ID, OpportunityID: op.ID, OrderText: "2 normale"}
	require.NoError(t, database.SaveOrder(ctx, first))

	second := &models.Order{UserID: u.ID, OpportunityID: op.ID, OrderText: "3 Special"}
	require.NoError(t, database.SaveOrder(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	lines, err := database.OrdersForOpportunity(ctx, op.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "3 Special", lines[0].OrderText)
	assert.Equal(t, "ben", lines[0].TelegramUsername)
	assert.Equal(t, int64(7), lines[0].TelegramUserID)
}

func TestOpenOrdersForUser(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	u, err := database.UpsertUser(ctx, 7, "ben", "Hamburg")
	require.NoError(t, err)
	past := &models.Opportunity{City: "Hamburg", Date: day("2024-03-01")}
	future := &models.Opportunity{City: "Hamburg", Date: day("2024-03-20")}
	require.NoError(t, database.CreateOpportunity(ctx, past))
	require.NoError(t, database.CreateOpportunity(ctx, future))
	require.NoError(t, database.SaveOrder(ctx, &models.Order{UserID: u.ID, OpportunityID: past.ID, OrderText: "alt"}))
	require.NoError(t, database.SaveOrder(ctx, &models.Order{UserID: u.ID, OpportunityID: future.ID, OrderText: "neu"}))

	orders, err := database.OpenOrdersForUser(ctx, u.ID, day("2024-03-10"))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "neu", orders[0].OrderText)
	assert.Equal(t, "Hamburg", orders[0].City)
	assert.Equal(t, "2024-03-20", orders[0].Date.String())
}

func TestDeleteOpportunity(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	op := &models.Opportunity{City: "Hamburg", Date: day("2024-03-12")}
	require.NoError(t, database.CreateOpportunity(ctx, op))
	other := &models.Opportunity{City: "Hamburg", Date: day("2024-03-13")}
	require.NoError(t, database.CreateOpportunity(ctx, other))

	for _, id := range []int64{11, 12, 13} {
		u, err := database.UpsertUser(ctx, id, "", "Hamburg")
		require.NoError(t, err)
		require.NoError(t, database.SaveOrder(ctx, &models.Order{UserID: u.ID, OpportunityID: op.ID, OrderText: "x"}))
		require.NoError(t, database.SaveOrder(ctx, &models.Order{UserID: u.ID, OpportunityID: other.ID, OrderText: "y"}))
	}

	recipients, err := database.DeleteOpportunity(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12, 13}, recipients)

	_, err = database.Opportunity(ctx, op.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	lines, err := database.OrdersForOpportunity(ctx, op.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	kept, err := database.OrdersForOpportunity(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 3)

	_, err = database.DeleteOpportunity(ctx, op.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPing(t *testing.T) {
	assert.NoError(t, newTestDB(t).Ping(context.Background()))
}
