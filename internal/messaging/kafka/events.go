package kafka

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is published whenever an order is created or changes status.
type OrderEvent struct {
	Type       string          `json:"type"`
	OrderID    string          `json:"orderId"`
	UserID     string          `json:"userId,omitempty"`
	Status     string          `json:"status"`
	PrevStatus string          `json:"prevStatus,omitempty"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Publisher delivers order events.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, ev OrderEvent) error
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderEvent(context.Context, OrderEvent) error { return nil }
