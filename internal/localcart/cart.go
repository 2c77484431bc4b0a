// Package localcart keeps the carts and recently viewed lists of guests who
// have not signed in. Carts are plain values; Store persists them.
package localcart

import (
	"github.com/shopspring/decimal"
	"github.com/xRWDev/ReTech/internal/domain"
)

type Item struct {
	ProductID  string             `json:"productId"`
	Quantity   int                `json:"quantity"`
	PriceAtAdd decimal.Decimal    `json:"priceAtAdd"`
	Product    *domain.ProductRef `json:"product,omitempty"`
}

type Cart struct {
	Items []Item `json:"items"`
}

// AddItem increments an existing line or appends a new one priced at the
// product's current price. Stock is not consulted.
func (c *Cart) AddItem(p domain.Product, qty int) {
	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.Items[i].Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, Item{
		ProductID:  p.ID,
		Quantity:   qty,
		PriceAtAdd: p.Price,
		Product:    p.Ref(),
	})
}

// UpdateQuantity overwrites the quantity of a line; qty <= 0 removes it.
func (c *Cart) UpdateQuantity(productID string, qty int) {
	if qty <= 0 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			return
		}
	}
}

func (c *Cart) RemoveItem(productID string) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
}

func (c *Cart) Clear() {
	c.Items = nil
}

// Total sums priceAtAdd × quantity.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.PriceAtAdd.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c Cart) Empty() bool {
	return len(c.Items) == 0
}
