package inventory

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/repository/pgtest"
)

func TestPostgres_AdjustDecrementFloorsAndRestocks(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	a := pgtest.Product(t, pool, "ipad-9", "8000", 3)
	b := pgtest.Product(t, pool, "ipad-10", "11000", 1)
	repo := NewPostgres(pool)

	err := repo.Adjust(ctx, []domain.StockAdjustment{{ProductID: a, Quantity: 2}, {ProductID: b, Quantity: 5}}, false)
	if err != nil {
		t.Fatalf("Adjust decrease: %v", err)
	}
	assertStock(t, ctx, pool, a, 1)
	assertStock(t, ctx, pool, b, 0)

	if err := repo.Adjust(ctx, []domain.StockAdjustment{{ProductID: a, Quantity: 2}}, true); err != nil {
		t.Fatalf("Adjust increase: %v", err)
	}
	assertStock(t, ctx, pool, a, 3)
}

func assertStock(t *testing.T, ctx context.Context, pool *pgxpool.Pool, id string, want int) {
	t.Helper()
	var got int
	if err := pool.QueryRow(ctx, `SELECT stock_count FROM products WHERE id = $1`, id).Scan(&got); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if got != want {
		t.Fatalf("product %s: expected stock %d, got %d", id, want, got)
	}
}
