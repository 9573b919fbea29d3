package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marudor/marudor-liefert/internal/dates"
	"github.com/marudor/marudor-liefert/internal/db"
	"github.com/marudor/marudor-liefert/internal/models"
)

type recordingAnnouncer struct {
	mu        sync.Mutex
	created   []models.Opportunity
	cancelled map[int64][]int64
}

func (a *recordingAnnouncer) OpportunityCreated(op models.Opportunity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.created = append(a.created, op)
}

func (a *recordingAnnouncer) OpportunityCancelled(op models.Opportunity, chatIDs []int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelled == nil {
		a.cancelled = make(map[int64][]int64)
	}
	a.cancelled[op.ID] = chatIDs
}

var testNow = time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fixture struct {
	store     *db.DB
	announcer *recordingAnnouncer
	ops       *Opportunities
	orders    *Orders
	users     *Users
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := db.New(db.DriverSQLite, filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	a := &recordingAnnouncer{}
	return &fixture{
		store:     store,
		announcer: a,
		ops:       NewOpportunities(store, a, fixedClock),
		orders:    NewOrders(store, fixedClock),
		users:     NewUsers(store),
	}
}

func date(y int, m time.Month, d int) models.Date {
	return models.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func TestCityChoices(t *testing.T) {
	got := CityChoices(
		[]string{"Köln", "Hamburg", " ", "Berlin"},
		[]string{"Hamburg", "Aachen", "Köln "},
	)
	assert.Equal(t, []string{"Aachen", "Berlin", "Hamburg", "Köln"}, got)
	assert.Empty(t, CityChoices(nil, nil))
}

func TestCitiesIgnorePastOpportunities(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.users.SetHometown(ctx, 1, "a", "Hamburg")
	require.NoError(t, err)
	require.NoError(t, f.store.CreateOpportunity(ctx, &models.Opportunity{City: "Leipzig", Date: date(2024, 3, 1)}))
	_, err = f.ops.Create(ctx, date(2024, 3, 12), "Hamburg")
	require.NoError(t, err)
	_, err = f.ops.Create(ctx, date(2024, 3, 13), "Bremen")
	require.NoError(t, err)

	cities, err := f.ops.Cities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bremen", "Hamburg"}, cities)
}

func TestParseDate(t *testing.T) {
	f := newFixture(t)

	d, err := f.ops.ParseDate("12.03.2024")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-12", d.String())

	d, err = f.ops.ParseDate("10.03.")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", d.String())

	_, err = f.ops.ParseDate("09.03.2024")
	assert.ErrorIs(t, err, ErrPastDate)

	_, err = f.ops.ParseDate("morgen")
	assert.ErrorIs(t, err, dates.ErrInvalid)
}

func TestCreateAnnouncesAndValidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	op, err := f.ops.Create(ctx, date(2024, 3, 12), "  Hamburg ")
	require.NoError(t, err)
	assert.NotZero(t, op.ID)
	assert.Equal(t, "Hamburg", op.City)
	require.Len(t, f.announcer.created, 1)
	assert.Equal(t, op.ID, f.announcer.created[0].ID)

	_, err = f.ops.Create(ctx, date(2024, 3, 9), "Hamburg")
	assert.ErrorIs(t, err, ErrPastDate)
	_, err = f.ops.Create(ctx, date(2024, 3, 12), " ")
	assert.ErrorIs(t, err, ErrEmptyCity)
	assert.Len(t, f.announcer.created, 1)
}

func TestUpcomingExcludesPast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.store.CreateOpportunity(ctx, &models.Opportunity{City: "Hamburg", Date: date(2024, 3, 9)}))
	_, err := f.ops.Create(ctx, date(2024, 3, 10), "Hamburg")
	require.NoError(t, err)
	_, err = f.ops.Create(ctx, date(2024, 4, 1), "Berlin")
	require.NoError(t, err)

	ops, err := f.ops.Upcoming(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "2024-03-10", ops[0].Date.String())
	assert.Equal(t, "2024-04-01", ops[1].Date.String())

	inCity, err := f.ops.UpcomingInCity(ctx, "Hamburg")
	require.NoError(t, err)
	require.Len(t, inCity, 1)
	assert.Equal(t, "2024-03-10", inCity[0].Date.String())
}

func TestSubscribers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := int64(1); i <= 3; i++ {
		_, err := f.users.SetHometown(ctx, i, "", "Köln")
		require.NoError(t, err)
	}
	n, err := f.ops.Subscribers(ctx, "Köln")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = f.ops.Subscribers(ctx, "Bonn")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOrderTwiceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.users.SetHometown(ctx, 500, "carla", "Hamburg")
	require.NoError(t, err)
	op, err := f.ops.Create(ctx, date(2024, 3, 12), "Hamburg")
	require.NoError(t, err)

	draft, err := f.orders.Begin(ctx, 500, op.ID)
	require.NoError(t, err)
	assert.Nil(t, draft.Existing)
	_, err = f.orders.Save(ctx, draft.User.ID, op.ID, "2 normale")
	require.NoError(t, err)

	draft, err = f.orders.Begin(ctx, 500, op.ID)
	require.NoError(t, err)
	require.NotNil(t, draft.Existing)
	assert.Equal(t, "2 normale", draft.Existing.OrderText)
	_, err = f.orders.Save(ctx, draft.User.ID, op.ID, "1 Special")
	require.NoError(t, err)

	_, lines, err := f.ops.Orders(ctx, op.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "1 Special", lines[0].OrderText)

	open, err := f.orders.Open(ctx, 500)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Hamburg", open[0].City)
}

func TestBeginPreconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	op, err := f.ops.Create(ctx, date(2024, 3, 12), "Hamburg")
	require.NoError(t, err)
	past := &models.Opportunity{City: "Hamburg", Date: date(2024, 3, 1)}
	require.NoError(t, f.store.CreateOpportunity(ctx, past))

	_, err = f.orders.Begin(ctx, 1, op.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.users.SetHometown(ctx, 1, "", "Hamburg")
	require.NoError(t, err)

	_, err = f.orders.Begin(ctx, 1, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.orders.Begin(ctx, 1, past.ID)
	assert.ErrorIs(t, err, ErrClosed)

	open, err := f.orders.Open(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSaveRechecksOpportunity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u, err := f.users.SetHometown(ctx, 1, "", "Hamburg")
	require.NoError(t, err)
	op, err := f.ops.Create(ctx, date(2024, 3, 12), "Hamburg")
	require.NoError(t, err)

	_, err = f.orders.Begin(ctx, 1, op.ID)
	require.NoError(t, err)
	_, _, err = f.ops.Cancel(ctx, op.ID)
	require.NoError(t, err)

	_, err = f.orders.Save(ctx, u.ID, op.ID, "2 normale")
	assert.ErrorIs(t, err, ErrNotFound)
	lines, err := f.store.OrdersForOpportunity(ctx, op.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	tomorrow, err := f.ops.Create(ctx, date(2024, 3, 11), "Hamburg")
	require.NoError(t, err)
	_, err = f.orders.Begin(ctx, 1, tomorrow.ID)
	require.NoError(t, err)

	later := NewOrders(f.store, func() time.Time { return testNow.Add(48 * time.Hour) })
	_, err = later.Save(ctx, u.ID, tomorrow.ID, "2 normale")
	assert.ErrorIs(t, err, ErrClosed)
	lines, err = f.store.OrdersForOpportunity(ctx, tomorrow.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCancelNotifiesEveryOrderer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	op, err := f.ops.Create(ctx, date(2024, 3, 12), "Hamburg")
	require.NoError(t, err)
	for _, id := range []int64{21, 22, 23, 24} {
		u, err := f.users.SetHometown(ctx, id, "", "Hamburg")
		require.NoError(t, err)
		_, err = f.orders.Save(ctx, u.ID, op.ID, "eins")
		require.NoError(t, err)
	}

	cancelled, n, err := f.ops.Cancel(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, op.ID, cancelled.ID)
	assert.Equal(t, 4, n)
	assert.ElementsMatch(t, []int64{21, 22, 23, 24}, f.announcer.cancelled[op.ID])

	_, err = f.ops.Get(ctx, op.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = f.ops.Orders(ctx, op.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = f.ops.Cancel(ctx, op.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelWithoutOrdersStaysQuiet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	op, err := f.ops.Create(ctx, date(2024, 3, 12), "Hamburg")
	require.NoError(t, err)

	_, n, err := f.ops.Cancel(ctx, op.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.announcer.cancelled)
}

func TestSetHometownRejectsEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.users.SetHometown(ctx, 1, "", "  ")
	assert.ErrorIs(t, err, ErrEmptyCity)

	u, err := f.users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, u)
}
