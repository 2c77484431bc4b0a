// Package inventory calls the stock adjustment procedure.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xRWDev/ReTech/internal/domain"
)

type Repository interface {
	Adjust(ctx context.Context, items []domain.StockAdjustment, increase bool) error
}

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// Adjust decrements (or restocks when increase is set) every listed product in
// one call. Decrements floor at zero.
func (r *postgresRepo) Adjust(ctx context.Context, items []domain.StockAdjustment, increase bool) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, `SELECT adjust_stock($1::jsonb, $2)`, string(payload), increase); err != nil {
		return fmt.Errorf("adjust_stock: %w", err)
	}
	return nil
}
