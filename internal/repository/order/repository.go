package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xRWDev/ReTech/internal/domain"
)

// DayLayout formats the day keys returned by CountByDay.
const DayLayout = "2006-01-02"

type Repository interface {
	// Create inserts the order header and returns it with id and timestamps set.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	AddItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	// UpdateStatus moves the order from one status to another and reports
	// ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
	// Revenue sums the totals of every order that was not cancelled.
	Revenue(ctx context.Context) (decimal.Decimal, error)
	// CountByDay counts orders created at or after since per UTC day, keyed
	// by DayLayout. Days without orders are absent.
	CountByDay(ctx context.Context, since time.Time) (map[string]int, error)
}
