// Package catalog serves product listings and the admin inventory editor.
package catalog

import (
	"context"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/logging"
	productrepo "github.com/xRWDev/ReTech/internal/repository/product"
)

const (
	similarLimit  = 8
	featuredLimit = 8
)

type Service struct {
	repo   productrepo.Repository
	logger *logrus.Entry
}

func New(repo productrepo.Repository, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context, f productrepo.Filter) ([]domain.Product, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Similar lists other available products of the same category.
func (s *Service) Similar(ctx context.Context, p domain.Product) ([]domain.Product, error) {
	return s.repo.Similar(ctx, p.ID, p.Category, similarLimit)
}

// Featured lists discounted products by rating.
func (s *Service) Featured(ctx context.Context) ([]domain.Product, error) {
	return s.repo.Featured(ctx, featuredLimit)
}

// FilterOptions returns the facet values of available products along with
// every condition grade.
func (s *Service) FilterOptions(ctx context.Context) (*productrepo.FilterOptions, error) {
	opts, err := s.repo.FilterOptions(ctx)
	if err != nil {
		return nil, err
	}
	opts.Conditions = domain.ConditionOptions()
	return opts, nil
}

// ProductInput is the admin-editable part of a product.
type ProductInput struct {
	Title          string           `json:"title"`
	Slug           string           `json:"slug"`
	Category       string           `json:"category"`
	Brand          string           `json:"brand"`
	Model          string           `json:"model"`
	Price          decimal.Decimal  `json:"price"`
	OldPrice       *decimal.Decimal `json:"oldPrice"`
	Currency       string           `json:"currency"`
	Condition      domain.Condition `json:"condition"`
	Storage        string           `json:"storage"`
	RAM            string           `json:"ram"`
	CPU            string           `json:"cpu"`
	GPU            string           `json:"gpu"`
	ScreenSize     string           `json:"screenSize"`
	BatteryHealth  *int             `json:"batteryHealth"`
	Color          string           `json:"color"`
	LocationCity   string           `json:"locationCity"`
	WarrantyMonths int              `json:"warrantyMonths"`
	Description    string           `json:"description"`
	Images         []string         `json:"images"`
	IsAvailable    bool             `json:"isAvailable"`
	StockCount     int              `json:"stockCount"`
}

func (s *Service) AdminList(ctx context.Context, actor domain.Identity) ([]domain.Product, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListAll(ctx)
}

func (s *Service) Create(ctx context.Context, actor domain.Identity, in ProductInput) (*domain.Product, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}
	p, err := in.Product()
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"product_id": created.ID, "actor": actor.UserID}).Info("product created")
	return created, nil
}

func (s *Service) Update(ctx context.Context, actor domain.Identity, id string, in ProductInput) (*domain.Product, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}
	p, err := in.Product()
	if err != nil {
		return nil, err
	}
	p.ID = id
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"product_id": id, "actor": actor.UserID, "stock": updated.StockCount}).Info("product updated")
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Identity, id string) error {
	if !actor.IsAdmin {
		return domain.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"product_id": id, "actor": actor.UserID}).Info("product deleted")
	return nil
}

// Product validates the input and builds the product it describes.
func (in ProductInput) Product() (domain.Product, error) {
	var verr domain.ValidationError
	title := strings.TrimSpace(in.Title)
	if title == "" {
		verr.Add("title", "required")
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		verr.Add("slug", "required")
	}
	if !domain.IsCategory(in.Category) {
		verr.Add("category", "unknown category")
	}
	if strings.TrimSpace(in.Brand) == "" {
		verr.Add("brand", "required")
	}
	if in.Price.IsNegative() {
		verr.Add("price", "must not be negative")
	}
	if !in.Condition.Valid() {
		verr.Add("condition", "must be A, B or C")
	}
	if strings.TrimSpace(in.LocationCity) == "" {
		verr.Add("locationCity", "required")
	}
	if in.StockCount < 0 {
		verr.Add("stockCount", "must not be negative")
	}
	if in.WarrantyMonths < 0 {
		verr.Add("warrantyMonths", "must not be negative")
	}
	if in.BatteryHealth != nil && (*in.BatteryHealth < 0 || *in.BatteryHealth > 100) {
		verr.Add("batteryHealth", "must be between 0 and 100")
	}
	if err := verr.OrNil(); err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		Title:          title,
		Slug:           slug,
		Category:       in.Category,
		Brand:          strings.TrimSpace(in.Brand),
		Model:          strings.TrimSpace(in.Model),
		Price:          in.Price,
		Currency:       strings.ToUpper(strings.TrimSpace(in.Currency)),
		Condition:      in.Condition,
		Storage:        in.Storage,
		RAM:            in.RAM,
		CPU:            in.CPU,
		GPU:            in.GPU,
		ScreenSize:     in.ScreenSize,
		BatteryHealth:  in.BatteryHealth,
		Color:          in.Color,
		LocationCity:   strings.TrimSpace(in.LocationCity),
		WarrantyMonths: in.WarrantyMonths,
		Description:    in.Description,
		Images:         in.Images,
		IsAvailable:    in.IsAvailable,
		StockCount:     in.StockCount,
	}
	if in.OldPrice != nil {
		p.OldPrice = decimal.NewNullDecimal(*in.OldPrice)
	}
	if p.Currency == "" {
		p.Currency = domain.DefaultCurrency
	}
	return p, nil
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
