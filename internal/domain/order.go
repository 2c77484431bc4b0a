package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDone      OrderStatus = "DONE"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:     {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusDone, OrderStatusCancelled},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusPaid, OrderStatusShipped, OrderStatusDone, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDone || s == OrderStatusCancelled
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type DeliveryType string

const (
	DeliveryCourier DeliveryType = "COURIER"
	DeliveryPickup  DeliveryType = "PICKUP"
)

var (
	// FreeDeliveryThreshold is the subtotal from which courier delivery is free.
	FreeDeliveryThreshold = decimal.NewFromInt(10000)
	// CourierFee is charged for courier delivery below the threshold.
	CourierFee = decimal.NewFromInt(200)
)

// DeliveryFee computes the delivery charge for a subtotal.
func DeliveryFee(t DeliveryType, subtotal decimal.Decimal) decimal.Decimal {
	if t != DeliveryCourier {
		return decimal.Zero
	}
	if !subtotal.IsPositive() || subtotal.GreaterThanOrEqual(FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return CourierFee
}

type Order struct {
	ID           string          `json:"id"`
	UserID       *string         `json:"userId,omitempty"`
	Status       OrderStatus     `json:"status"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
	DeliveryType DeliveryType    `json:"deliveryType"`
	City         string          `json:"city,omitempty"`
	Address      string          `json:"address,omitempty"`
	Name         string          `json:"name"`
	Phone        string          `json:"phone"`
	Comment      string          `json:"comment,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Items        []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"orderId"`
	ProductID     *string         `json:"productId"`
	TitleSnapshot string          `json:"titleSnapshot"`
	PriceSnapshot decimal.Decimal `json:"priceSnapshot"`
	Quantity      int             `json:"quantity"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Subtotal sums priceSnapshot × quantity.
func Subtotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.PriceSnapshot.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// StockAdjustment is one entry passed to the inventory procedure.
type StockAdjustment struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
