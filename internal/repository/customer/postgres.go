package customer

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *logrus.Entry
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *logrus.Entry) Repository {
	if logger == nil {
		logger = logging.Discard()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
INSERT INTO customers (email, password_hash, name, phone)
VALUES ($1, $2, $3, $4)
RETURNING id::text, email, password_hash, name, phone, created_at
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, strings.ToLower(c.Email), c.PasswordHash, c.Name, c.Phone))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	const q = `
SELECT id::text, email, password_hash, name, phone, created_at
FROM customers
WHERE lower(email) = lower($1)
LIMIT 1
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const q = `
SELECT id::text, email, password_hash, name, phone, created_at
FROM customers
WHERE id = $1
LIMIT 1
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) UpdateProfile(ctx context.Context, id, name, phone string) (*domain.Customer, error) {
	const q = `
UPDATE customers
SET name = $2, phone = $3
WHERE id = $1
RETURNING id::text, email, password_hash, name, phone, created_at
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, id, name, phone))
}

func (r *postgresRepo) HasRole(ctx context.Context, userID string, role domain.Role) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2::app_role)`, userID, string(role)).Scan(&ok)
	return ok, err
}

func (r *postgresRepo) GrantRole(ctx context.Context, userID string, role domain.Role) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO user_roles (user_id, role)
VALUES ($1, $2::app_role)
ON CONFLICT DO NOTHING
`, userID, string(role))
	return err
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.Name, &c.Phone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.WithError(err).Error("scan customer")
		return nil, err
	}
	return &c, nil
}
