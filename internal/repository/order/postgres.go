package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/logging"
)

const orderColumns = `id::text, user_id::text, status, total, currency, delivery_type, COALESCE(city, ''),
COALESCE(address, ''), name, phone, COALESCE(comment, ''), created_at, updated_at`

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

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	const q = `
INSERT INTO orders (user_id, status, total, currency, delivery_type, city, address, name, phone, comment)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, NULLIF($10, ''))
RETURNING ` + orderColumns
	currency := o.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	out, err := scanOrder(r.pool.QueryRow(ctx, q,
		o.UserID, string(o.Status), o.Total, currency, string(o.DeliveryType),
		o.City, o.Address, o.Name, o.Phone, o.Comment,
	))
	if err != nil {
		r.logger.WithError(err).Error("create order")
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) AddItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
INSERT INTO order_items (order_id, product_id, title_snapshot, price_snapshot, quantity)
VALUES ($1, $2, $3, $4, $5)
`, orderID, it.ProductID, it.TitleSnapshot, it.PriceSnapshot, it.Quantity)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.WithError(err).WithField("order_id", orderID).Error("insert order items")
		return err
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *postgresRepo) ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const q = `
SELECT id::text, order_id::text, product_id::text, title_snapshot, price_snapshot, quantity, created_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.TitleSnapshot, &it.PriceSnapshot, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListAll returns every order, newest first; an empty status matches all.
func (r *postgresRepo) ListAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE $1 = '' OR status = $1 ORDER BY created_at DESC`, string(status))
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	const q = `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
RETURNING ` + orderColumns
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id, string(from), string(to)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidTransition
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := r.ListItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var status, delivery string
	if err := row.Scan(
		&o.ID, &o.UserID, &status, &o.Total, &o.Currency, &delivery, &o.City,
		&o.Address, &o.Name, &o.Phone, &o.Comment, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.DeliveryType = domain.DeliveryType(delivery)
	return &o, nil
}

func (r *postgresRepo) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> $1`,
		string(domain.OrderStatusCancelled)).Scan(&total)
	return total, err
}

func (r *postgresRepo) CountByDay(ctx context.Context, since time.Time) (map[string]int, error) {
	const q = `
SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), count(*)
FROM orders
WHERE created_at >= $1
GROUP BY 1
`
	rows, err := r.pool.Query(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			day string
			n   int
		)
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		out[day] = n
	}
	return out, rows.Err()
}
