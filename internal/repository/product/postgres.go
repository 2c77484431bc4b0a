package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/logging"
)

const columns = `id::text, title, slug, category, brand, COALESCE(model, ''), price, old_price, currency, condition,
COALESCE(storage, ''), COALESCE(ram, ''), COALESCE(cpu, ''), COALESCE(gpu, ''), COALESCE(screen_size, ''),
battery_health, COALESCE(color, ''), location_city, warranty_months, COALESCE(description, ''), images,
is_available, stock_count, rating_avg::float8, rating_count, created_at, updated_at`

var orderBy = map[Sort]string{
	SortPopular:   "rating_count DESC NULLS LAST, created_at DESC",
	SortNewest:    "created_at DESC",
	SortPriceAsc:  "price ASC",
	SortPriceDesc: "price DESC",
}

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

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]domain.Product, error) {
	where, args := buildWhere(f)
	order, ok := orderBy[f.Sort]
	if !ok {
		order = orderBy[SortPopular]
	}
	q := `SELECT ` + columns + ` FROM products WHERE ` + where + ` ORDER BY ` + order
	products, err := r.query(ctx, q, args...)
	if err != nil {
		r.logger.WithError(err).Error("list products")
		return nil, err
	}
	r.logger.WithField("count", len(products)).Debug("listed products")
	return products, nil
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	return r.query(ctx, `SELECT `+columns+` FROM products ORDER BY created_at DESC`)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.one(ctx, `SELECT `+columns+` FROM products WHERE id = $1`, id)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.one(ctx, `SELECT `+columns+` FROM products WHERE slug = $1`, slug)
}

func (r *postgresRepo) Similar(ctx context.Context, productID, category string, limit int) ([]domain.Product, error) {
	const q = `SELECT ` + columns + `
FROM products
WHERE category = $1 AND is_available AND id <> $2
ORDER BY rating_count DESC NULLS LAST
LIMIT $3`
	return r.query(ctx, q, category, productID, limit)
}

func (r *postgresRepo) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	const q = `SELECT ` + columns + `
FROM products
WHERE is_available AND old_price IS NOT NULL
ORDER BY rating_avg DESC NULLS LAST
LIMIT $1`
	return r.query(ctx, q, limit)
}

func (r *postgresRepo) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	const q = `
SELECT
    COALESCE(array_agg(DISTINCT brand ORDER BY brand), '{}'),
    COALESCE(array_agg(DISTINCT location_city ORDER BY location_city), '{}'),
    COALESCE(MIN(price), 0),
    COALESCE(MAX(price), 0)
FROM products
WHERE is_available
`
	var out FilterOptions
	if err := r.pool.QueryRow(ctx, q).Scan(&out.Brands, &out.Cities, &out.MinPrice, &out.MaxPrice); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (title, slug, category, brand, model, price, old_price, currency, condition, storage, ram, cpu, gpu,
    screen_size, battery_health, color, location_city, warranty_months, description, images, is_available, stock_count)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''),
    NULLIF($14, ''), $15, NULLIF($16, ''), $17, $18, NULLIF($19, ''), $20, $21, $22)
RETURNING ` + columns
	return r.one(ctx, q, writeArgs(p)...)
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products SET
    title = $1, slug = $2, category = $3, brand = $4, model = NULLIF($5, ''), price = $6, old_price = $7, currency = $8,
    condition = $9, storage = NULLIF($10, ''), ram = NULLIF($11, ''), cpu = NULLIF($12, ''), gpu = NULLIF($13, ''),
    screen_size = NULLIF($14, ''), battery_health = $15, color = NULLIF($16, ''), location_city = $17,
    warranty_months = $18, description = NULLIF($19, ''), images = $20, is_available = $21, stock_count = $22,
    updated_at = now()
WHERE id = $23
RETURNING ` + columns
	return r.one(ctx, q, append(writeArgs(p), p.ID)...)
}

// Upsert inserts or replaces the product with the same slug.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (title, slug, category, brand, model, price, old_price, currency, condition, storage, ram, cpu, gpu,
    screen_size, battery_health, color, location_city, warranty_months, description, images, is_available, stock_count)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''),
    NULLIF($14, ''), $15, NULLIF($16, ''), $17, $18, NULLIF($19, ''), $20, $21, $22)
ON CONFLICT (slug) DO UPDATE SET
    title = EXCLUDED.title, category = EXCLUDED.category, brand = EXCLUDED.brand, model = EXCLUDED.model,
    price = EXCLUDED.price, old_price = EXCLUDED.old_price, currency = EXCLUDED.currency, condition = EXCLUDED.condition,
    storage = EXCLUDED.storage, ram = EXCLUDED.ram, cpu = EXCLUDED.cpu, gpu = EXCLUDED.gpu,
    screen_size = EXCLUDED.screen_size, battery_health = EXCLUDED.battery_health, color = EXCLUDED.color,
    location_city = EXCLUDED.location_city, warranty_months = EXCLUDED.warranty_months,
    description = EXCLUDED.description, images = EXCLUDED.images, is_available = EXCLUDED.is_available,
    stock_count = EXCLUDED.stock_count, updated_at = now()
RETURNING ` + columns
	out, err := r.one(ctx, q, writeArgs(p)...)
	if err != nil {
		r.logger.WithError(err).WithField("slug", p.Slug).Error("upsert product")
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{"slug": out.Slug, "id": out.ID}).Debug("upserted product")
	return out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) one(ctx context.Context, q string, args ...any) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var condition string
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Category, &p.Brand, &p.Model, &p.Price, &p.OldPrice, &p.Currency, &condition,
		&p.Storage, &p.RAM, &p.CPU, &p.GPU, &p.ScreenSize,
		&p.BatteryHealth, &p.Color, &p.LocationCity, &p.WarrantyMonths, &p.Description, &p.Images,
		&p.IsAvailable, &p.StockCount, &p.RatingAvg, &p.RatingCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Condition = domain.Condition(condition)
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

func writeArgs(p domain.Product) []any {
	currency := p.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return []any{
		p.Title, p.Slug, p.Category, p.Brand, p.Model, p.Price, p.OldPrice, currency, string(p.Condition),
		p.Storage, p.RAM, p.CPU, p.GPU, p.ScreenSize, p.BatteryHealth, p.Color, p.LocationCity,
		p.WarrantyMonths, p.Description, images, p.IsAvailable, p.StockCount,
	}
}

func buildWhere(f Filter) (string, []any) {
	conds := []string{"is_available"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Categories) > 0 {
		conds = append(conds, "category = ANY("+arg(f.Categories)+")")
	}
	if len(f.Brands) > 0 {
		conds = append(conds, "brand = ANY("+arg(f.Brands)+")")
	}
	if len(f.Conditions) > 0 {
		conds = append(conds, "condition = ANY("+arg(f.Conditions)+")")
	}
	if len(f.Cities) > 0 {
		conds = append(conds, "location_city = ANY("+arg(f.Cities)+")")
	}
	if f.MinPrice != nil {
		conds = append(conds, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "price <= "+arg(*f.MaxPrice))
	}
	if f.WarrantyMonths > 0 {
		conds = append(conds, "warranty_months >= "+arg(f.WarrantyMonths))
	}
	if f.InStockOnly {
		conds = append(conds, "stock_count > 0")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg("%" + escapeLike(s) + "%")
		conds = append(conds, "(title ILIKE "+p+" OR brand ILIKE "+p+" OR model ILIKE "+p+")")
	}
	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *postgresRepo) CountStock(ctx context.Context) (total, inStock int, err error) {
	const q = `SELECT count(*), count(*) FILTER (WHERE is_available AND stock_count > 0) FROM products`
	err = r.pool.QueryRow(ctx, q).Scan(&total, &inStock)
	return total, inStock, err
}
