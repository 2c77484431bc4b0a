package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xRWDev/ReTech/internal/domain"
)

type stubOrders struct {
	revenue   decimal.Decimal
	counts    map[string]int
	err       error
	lastSince time.Time
}

func (s *stubOrders) Revenue(context.Context) (decimal.Decimal, error) {
	return s.revenue, s.err
}

func (s *stubOrders) CountByDay(_ context.Context, since time.Time) (map[string]int, error) {
	s.lastSince = since
	return s.counts, nil
}

type stubProducts struct {
	total, inStock int
}

func (s stubProducts) CountStock(context.Context) (int, int, error) {
	return s.total, s.inStock, nil
}

var admin = domain.Identity{UserID: "u-admin", IsAdmin: true}

func newService(orders *stubOrders, products stubProducts) *Service {
	svc := New(orders, products)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC) }
	return svc
}

func TestStats(t *testing.T) {
	orders := &stubOrders{
		revenue: decimal.NewFromInt(45000),
		counts:  map[string]int{"2026-03-14": 3, "2026-03-01": 1, "2026-03-10": 2},
	}
	stats, err := newService(orders, stubProducts{total: 12, inStock: 9}).Stats(context.Background(), admin)
	require.NoError(t, err)

	assert.Equal(t, 12, stats.TotalProducts)
	assert.Equal(t, 9, stats.InStock)
	assert.Equal(t, 3, stats.OrdersToday)
	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(45000)))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), orders.lastSince)

	require.Len(t, stats.OrdersByDay, Days)
	assert.Equal(t, DayCount{Date: "2026-03-01", Orders: 1}, stats.OrdersByDay[0])
	assert.Equal(t, DayCount{Date: "2026-03-10", Orders: 2}, stats.OrdersByDay[9])
	assert.Equal(t, DayCount{Date: "2026-03-14", Orders: 3}, stats.OrdersByDay[Days-1])
	assert.Equal(t, 0, stats.OrdersByDay[1].Orders)
}

func TestStatsRequiresAdmin(t *testing.T) {
	orders := &stubOrders{}
	_, err := newService(orders, stubProducts{}).Stats(context.Background(), domain.Identity{UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.True(t, orders.lastSince.IsZero())
}

func TestStatsPropagatesErrors(t *testing.T) {
	failure := errors.New("db down")
	_, err := newService(&stubOrders{err: failure}, stubProducts{}).Stats(context.Background(), admin)
	require.ErrorIs(t, err, failure)
}
