package category

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xRWDev/ReTech/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, label FROM categories ORDER BY position ASC, key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.Key, &c.Label); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category, position int) error {
	const q = `
INSERT INTO categories (key, label, position)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE
SET label = EXCLUDED.label,
    position = EXCLUDED.position
`
	_, err := r.pool.Exec(ctx, q, c.Key, c.Label, position)
	return err
}
