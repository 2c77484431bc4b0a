package cart

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/xRWDev/ReTech/internal/domain"
)

// UpsertLineInput sets the line for (CartID, ProductID), replacing any
// existing quantity and price.
type UpsertLineInput struct {
	CartID     string
	ProductID  string
	Quantity   int
	PriceAtAdd decimal.Decimal
}

type Repository interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	Ensure(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertLine(ctx context.Context, in UpsertLineInput) error
	DeleteLine(ctx context.Context, cartID, productID string) error
	DeleteLines(ctx context.Context, cartID string) error
}
