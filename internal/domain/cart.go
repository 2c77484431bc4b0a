package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the persisted cart of a signed-in user.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Lines     []CartLine `json:"lines"`
}

type CartLine struct {
	ID         string          `json:"id"`
	CartID     string          `json:"cartId"`
	ProductID  string          `json:"productId"`
	Quantity   int             `json:"quantity"`
	PriceAtAdd decimal.Decimal `json:"priceAtAdd"`
	CreatedAt  time.Time       `json:"createdAt"`
	Product    *ProductRef     `json:"product,omitempty"`
}

// Line returns the index of the line holding productID, or -1.
func (c *Cart) Line(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Subtotal sums priceAtAdd × quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.PriceAtAdd.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// ItemCount sums quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Clone returns a deep copy so cached values can be mutated speculatively.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	if c.Lines != nil {
		out.Lines = make([]CartLine, len(c.Lines))
		for i, l := range c.Lines {
			if l.Product != nil {
				ref := *l.Product
				l.Product = &ref
			}
			out.Lines[i] = l
		}
	}
	return &out
}
