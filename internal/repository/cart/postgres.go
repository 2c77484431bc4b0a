package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *logrus.Entry
}

func NewPostgres(pool *pgxpool.Pool, logger *logrus.Entry) Repository {
	if logger == nil {
		logger = logging.Discard()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.fetchCart(ctx, userID)
}

// Ensure returns the user's cart, creating it on first use.
func (r *postgresRepo) Ensure(ctx context.Context, userID string) (*domain.Cart, error) {
	if _, err := r.pool.Exec(ctx, `INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Error("ensure cart")
		return nil, err
	}
	return r.fetchCart(ctx, userID)
}

func (r *postgresRepo) UpsertLine(ctx context.Context, in UpsertLineInput) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_id, quantity, price_at_add)
VALUES ($1, $2, $3, $4)
ON CONFLICT (cart_id, product_id) DO UPDATE
SET quantity = EXCLUDED.quantity,
    price_at_add = EXCLUDED.price_at_add
`, in.CartID, in.ProductID, in.Quantity, in.PriceAtAdd); err != nil {
		return err
	}
	if err := touchCart(ctx, tx, in.CartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) DeleteLine(ctx context.Context, cartID, productID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID); err != nil {
		return err
	}
	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) DeleteLines(ctx context.Context, cartID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) fetchCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, `
SELECT id::text, user_id::text, created_at, updated_at
FROM carts
WHERE user_id = $1
`, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT ci.id::text, ci.cart_id::text, ci.product_id::text, ci.quantity, ci.price_at_add, ci.created_at,
       p.title, p.slug, p.price, p.currency, COALESCE(p.images[1], ''), p.stock_count, p.is_available
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.created_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Lines = []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		ref := &domain.ProductRef{}
		if err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ProductID,
			&line.Quantity,
			&line.PriceAtAdd,
			&line.CreatedAt,
			&ref.Title,
			&ref.Slug,
			&ref.Price,
			&ref.Currency,
			&ref.Image,
			&ref.StockCount,
			&ref.IsAvailable,
		); err != nil {
			return nil, err
		}
		ref.ID = line.ProductID
		line.Product = ref
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func touchCart(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}
