package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/repository/pgtest"
)

func TestPostgres_EnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	userID := pgtest.Customer(t, pool, "a@example.com")
	repo := NewPostgres(pool, nil)

	if _, err := repo.GetByUser(ctx, userID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before ensure, got %v", err)
	}

	first, err := repo.Ensure(ctx, userID)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	second, err := repo.Ensure(ctx, userID)
	if err != nil {
		t.Fatalf("Ensure again: %v", err)
	}
	if first.ID != second.ID || first.UserID != userID {
		t.Fatalf("expected one cart per user, got %s and %s", first.ID, second.ID)
	}
}

func TestPostgres_UpsertLineReplaces(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	userID := pgtest.Customer(t, pool, "b@example.com")
	productID := pgtest.Product(t, pool, "pixel-7", "12000", 5)
	repo := NewPostgres(pool, nil)

	cart, err := repo.Ensure(ctx, userID)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	for _, qty := range []int{2, 3} {
		if err := repo.UpsertLine(ctx, UpsertLineInput{CartID: cart.ID, ProductID: productID, Quantity: qty, PriceAtAdd: decimal.NewFromInt(12000)}); err != nil {
			t.Fatalf("UpsertLine: %v", err)
		}
	}

	got, err := repo.GetByUser(ctx, userID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].Quantity != 3 {
		t.Fatalf("expected single line with quantity 3, got %+v", got.Lines)
	}
	if got.Lines[0].Product == nil || got.Lines[0].Product.StockCount != 5 {
		t.Fatalf("expected joined product snapshot, got %+v", got.Lines[0].Product)
	}

	if err := repo.DeleteLine(ctx, cart.ID, productID); err != nil {
		t.Fatalf("DeleteLine: %v", err)
	}
	got, err = repo.GetByUser(ctx, userID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(got.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", got.Lines)
	}
}
