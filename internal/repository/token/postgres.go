package token

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xRWDev/ReTech/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, token Token) error {
	if (token.CustomerID == nil) == (token.AnonymousID == nil) {
		return errors.New("token must belong to exactly one of customer or guest")
	}
	const q = `
INSERT INTO tokens (token, customer_id, anonymous_id, kind, expires_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := r.pool.Exec(ctx, q, token.Token, token.CustomerID, token.AnonymousID, token.Kind, token.ExpiresAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *postgresRepo) Get(ctx context.Context, token string) (*Token, error) {
	const q = `
SELECT token, customer_id::text, anonymous_id, kind, expires_at, created_at
FROM tokens
WHERE token = $1
`
	var out Token
	err := r.pool.QueryRow(ctx, q, token).Scan(
		&out.Token, &out.CustomerID, &out.AnonymousID, &out.Kind, &out.ExpiresAt, &out.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, token string) error {
	n, err := r.exec(ctx, `DELETE FROM tokens WHERE token = $1`, token)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteForCustomer(ctx context.Context, customerID string) (int64, error) {
	return r.exec(ctx, `DELETE FROM tokens WHERE customer_id = $1`, customerID)
}

func (r *postgresRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM tokens WHERE expires_at <= $1`, before)
}

func (r *postgresRepo) exec(ctx context.Context, q string, args ...any) (int64, error) {
	cmd, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
