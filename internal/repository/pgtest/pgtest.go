// Package pgtest connects integration tests to the database named by TEST_DB_DSN.
package pgtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xRWDev/ReTech/internal/migrate"
)

// Pool returns a migrated, emptied pool or skips the test when TEST_DB_DSN is unset.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	Reset(t, pool)
	return pool
}

// Reset empties every table and reloads the category taxonomy.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, cart_items, carts, products, categories, tokens, user_roles, customers RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	if _, err := pool.Exec(ctx, `
INSERT INTO categories (key, label, position) VALUES
('smartphones', 'Smartphones', 1), ('laptops', 'Laptops', 2), ('tablets', 'Tablets', 3),
('accessories', 'Accessories', 4), ('gaming', 'Gaming', 5), ('audio', 'Audio', 6), ('monitors', 'Monitors', 7)
`); err != nil {
		t.Fatalf("insert categories: %v", err)
	}
}

// Customer inserts a customer row and returns its id.
func Customer(t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO customers (email, password_hash) VALUES ($1, 'x') RETURNING id::text`, email).Scan(&id)
	if err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	return id
}

// Product inserts an available product and returns its id.
func Product(t *testing.T, pool *pgxpool.Pool, slug string, price string, stock int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(), `
INSERT INTO products (title, slug, category, brand, price, condition, location_city, stock_count)
VALUES ($1, $1, 'smartphones', 'Apple', $2::numeric, 'A', 'Kyiv', $3)
RETURNING id::text`, slug, price, stock).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}
