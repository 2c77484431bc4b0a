// Package dashboard summarises products and orders for administrators.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xRWDev/ReTech/internal/domain"
	orderrepo "github.com/xRWDev/ReTech/internal/repository/order"
	"golang.org/x/sync/errgroup"
)

// Days is the length of the orders-per-day series, today included.
const Days = 14

type orderStats interface {
	Revenue(ctx context.Context) (decimal.Decimal, error)
	CountByDay(ctx context.Context, since time.Time) (map[string]int, error)
}

type productStats interface {
	CountStock(ctx context.Context) (total, inStock int, err error)
}

type DayCount struct {
	Date   string `json:"date"`
	Orders int    `json:"orders"`
}

type Stats struct {
	TotalProducts int             `json:"totalProducts"`
	InStock       int             `json:"inStock"`
	OrdersToday   int             `json:"ordersToday"`
	Revenue       decimal.Decimal `json:"revenue"`
	OrdersByDay   []DayCount      `json:"ordersByDay"`
}

type Service struct {
	orders   orderStats
	products productStats
	now      func() time.Time
}

func New(orders orderStats, products productStats) *Service {
	return &Service{orders: orders, products: products, now: time.Now}
}

// Stats counts products and orders. Days are UTC calendar days and revenue
// excludes cancelled orders.
func (s *Service) Stats(ctx context.Context, actor domain.Identity) (*Stats, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(Days - 1))

	var (
		out    Stats
		counts map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.TotalProducts, out.InStock, err = s.products.CountStock(gctx)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		out.Revenue, err = s.orders.Revenue(gctx)
		if err != nil {
			return fmt.Errorf("sum revenue: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		counts, err = s.orders.CountByDay(gctx, since)
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.OrdersByDay = make([]DayCount, 0, Days)
	for i := range Days {
		day := since.AddDate(0, 0, i).Format(orderrepo.DayLayout)
		out.OrdersByDay = append(out.OrdersByDay, DayCount{Date: day, Orders: counts[day]})
	}
	out.OrdersToday = counts[today.Format(orderrepo.DayLayout)]
	return &out, nil
}
