package product

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/xRWDev/ReTech/internal/domain"
)

type Sort string

const (
	SortPopular   Sort = "popular"
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

// Filter narrows catalog listings. Empty fields do not constrain.
type Filter struct {
	Categories     []string
	Brands         []string
	Conditions     []string
	Cities         []string
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	WarrantyMonths int
	InStockOnly    bool
	Search         string
	Sort           Sort
}

// FilterOptions are the distinct facet values over available products.
type FilterOptions struct {
	Brands   []string        `json:"brands"`
	Cities   []string        `json:"cities"`
	MinPrice decimal.Decimal `json:"minPrice"`
	MaxPrice decimal.Decimal `json:"maxPrice"`

	Conditions []domain.ConditionOption `json:"conditions"`
}

type Repository interface {
	List(ctx context.Context, f Filter) ([]domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Similar(ctx context.Context, productID, category string, limit int) ([]domain.Product, error)
	Featured(ctx context.Context, limit int) ([]domain.Product, error)
	FilterOptions(ctx context.Context) (*FilterOptions, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	// CountStock counts all products and those with at least one unit that
	// can be put into a cart.
	CountStock(ctx context.Context) (total, inStock int, err error)
}
