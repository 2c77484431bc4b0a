package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is applied to products created without a currency.
const DefaultCurrency = "UAH"

// Condition grades a refurbished device.
type Condition string

const (
	ConditionA Condition = "A"
	ConditionB Condition = "B"
	ConditionC Condition = "C"
)

// conditions lists the grades best first.
var conditions = []Condition{ConditionA, ConditionB, ConditionC}

var conditionLabels = map[Condition]string{
	ConditionA: "Excellent",
	ConditionB: "Good",
	ConditionC: "Fair",
}

// Label returns the display name of the grade.
func (c Condition) Label() string {
	return conditionLabels[c]
}

// Valid reports whether c is a known grade.
func (c Condition) Valid() bool {
	_, ok := conditionLabels[c]
	return ok
}

// ConditionOption is a grade as offered in the catalog filters.
type ConditionOption struct {
	Value Condition `json:"value"`
	Label string    `json:"label"`
}

func ConditionOptions() []ConditionOption {
	out := make([]ConditionOption, 0, len(conditions))
	for _, c := range conditions {
		out = append(out, ConditionOption{Value: c, Label: c.Label()})
	}
	return out
}

type Product struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Slug           string              `json:"slug"`
	Category       string              `json:"category"`
	Brand          string              `json:"brand"`
	Model          string              `json:"model,omitempty"`
	Price          decimal.Decimal     `json:"price"`
	OldPrice       decimal.NullDecimal `json:"oldPrice"`
	Currency       string              `json:"currency"`
	Condition      Condition           `json:"condition"`
	Storage        string              `json:"storage,omitempty"`
	RAM            string              `json:"ram,omitempty"`
	CPU            string              `json:"cpu,omitempty"`
	GPU            string              `json:"gpu,omitempty"`
	ScreenSize     string              `json:"screenSize,omitempty"`
	BatteryHealth  *int                `json:"batteryHealth,omitempty"`
	Color          string              `json:"color,omitempty"`
	LocationCity   string              `json:"locationCity"`
	WarrantyMonths int                 `json:"warrantyMonths"`
	Description    string              `json:"description,omitempty"`
	Images         []string            `json:"images"`
	IsAvailable    bool                `json:"isAvailable"`
	StockCount     int                 `json:"stockCount"`
	RatingAvg      *float64            `json:"ratingAvg,omitempty"`
	RatingCount    *int                `json:"ratingCount,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// Sellable reports whether at least one unit can be put into a cart.
func (p Product) Sellable() bool {
	return p.IsAvailable && p.StockCount > 0
}

// ClampQuantity bounds qty by the live stock count.
func (p Product) ClampQuantity(qty int) int {
	if qty > p.StockCount {
		return p.StockCount
	}
	return qty
}

// ProductRef is the product snapshot joined onto cart lines.
type ProductRef struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Image       string          `json:"image,omitempty"`
	StockCount  int             `json:"stockCount"`
	IsAvailable bool            `json:"isAvailable"`
}

// Ref builds the cart-facing snapshot of p.
func (p Product) Ref() *ProductRef {
	ref := &ProductRef{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Price:       p.Price,
		Currency:    p.Currency,
		StockCount:  p.StockCount,
		IsAvailable: p.IsAvailable,
	}
	if len(p.Images) > 0 {
		ref.Image = p.Images[0]
	}
	return ref
}
