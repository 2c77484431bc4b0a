// Package seed loads a demo catalog and an admin account for manual testing.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/logging"
	"github.com/xRWDev/ReTech/internal/service/catalog"
	customersvc "github.com/xRWDev/ReTech/internal/service/customer"
)

type categorySyncer interface {
	Sync(ctx context.Context) error
}

type productWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type accounts interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	GrantRole(ctx context.Context, email string, role domain.Role) (*domain.Customer, error)
}

// Admin is the account created by Apply. Empty Email skips it.
type Admin struct {
	Email    string
	Password string
}

type Seeder struct {
	categories categorySyncer
	products   productWriter
	accounts   accounts
	logger     *logrus.Entry
}

func New(categories categorySyncer, products productWriter, accounts accounts, logger *logrus.Entry) *Seeder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Seeder{categories: categories, products: products, accounts: accounts, logger: logger}
}

// Apply inserts seed data. It is idempotent: products upsert on slug and an
// existing admin account is only granted the role again.
func (s *Seeder) Apply(ctx context.Context, admin Admin) error {
	if err := s.categories.Sync(ctx); err != nil {
		return fmt.Errorf("sync categories: %w", err)
	}
	for _, in := range demoProducts() {
		p, err := in.Product()
		if err != nil {
			return fmt.Errorf("seed product %s: %w", in.Slug, err)
		}
		if _, err := s.products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", in.Slug, err)
		}
	}
	s.logger.WithField("products", len(demoProducts())).Info("catalog seeded")

	if admin.Email == "" {
		return nil
	}
	_, err := s.accounts.Signup(ctx, customersvc.SignupInput{Email: admin.Email, Password: admin.Password, Name: "Administrator"})
	if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return fmt.Errorf("create admin: %w", err)
	}
	if _, err := s.accounts.GrantRole(ctx, admin.Email, domain.RoleAdmin); err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}
	s.logger.WithField("email", admin.Email).Info("admin account ready")
	return nil
}

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func intPtr(v int) *int {
	return &v
}

func demoProducts() []catalog.ProductInput {
	old := price(21999)
	return []catalog.ProductInput{
		{
			Title: "iPhone 13 128GB Midnight", Slug: "iphone-13-128-midnight", Category: "smartphones",
			Brand: "Apple", Model: "iPhone 13", Price: price(17499), OldPrice: &old, Condition: domain.ConditionA,
			Storage: "128GB", RAM: "4GB", ScreenSize: "6.1\"", BatteryHealth: intPtr(91), Color: "Midnight",
			LocationCity: "Kyiv", WarrantyMonths: 6, IsAvailable: true, StockCount: 4,
			Description: "Fully tested, new battery contacts, no scratches on the screen.",
		},
		{
			Title: "Samsung Galaxy S21 256GB", Slug: "galaxy-s21-256", Category: "smartphones",
			Brand: "Samsung", Model: "Galaxy S21", Price: price(11999), Condition: domain.ConditionB,
			Storage: "256GB", RAM: "8GB", BatteryHealth: intPtr(85), Color: "Phantom Gray",
			LocationCity: "Lviv", WarrantyMonths: 3, IsAvailable: true, StockCount: 2,
		},
		{
			Title: "MacBook Air M1 8/256", Slug: "macbook-air-m1-8-256", Category: "laptops",
			Brand: "Apple", Model: "MacBook Air", Price: price(26999), Condition: domain.ConditionA,
			Storage: "256GB", RAM: "8GB", CPU: "Apple M1", ScreenSize: "13.3\"", BatteryHealth: intPtr(88),
			LocationCity: "Kyiv", WarrantyMonths: 12, IsAvailable: true, StockCount: 3,
		},
		{
			Title: "Lenovo ThinkPad T14 Gen 2", Slug: "thinkpad-t14-gen2", Category: "laptops",
			Brand: "Lenovo", Model: "ThinkPad T14", Price: price(18500), Condition: domain.ConditionB,
			Storage: "512GB", RAM: "16GB", CPU: "Intel i5-1135G7", GPU: "Iris Xe",
			LocationCity: "Dnipro", WarrantyMonths: 6, IsAvailable: true, StockCount: 5,
		},
		{
			Title: "iPad 9 64GB Wi-Fi", Slug: "ipad-9-64-wifi", Category: "tablets",
			Brand: "Apple", Model: "iPad 9", Price: price(9499), Condition: domain.ConditionC,
			Storage: "64GB", ScreenSize: "10.2\"", LocationCity: "Odesa", WarrantyMonths: 3,
			IsAvailable: true, StockCount: 1,
		},
		{
			Title: "AirPods Pro", Slug: "airpods-pro", Category: "audio",
			Brand: "Apple", Price: price(3999), Condition: domain.ConditionB,
			LocationCity: "Kyiv", WarrantyMonths: 3, IsAvailable: true, StockCount: 6,
		},
		{
			Title: "PlayStation 5 Disc Edition", Slug: "ps5-disc", Category: "gaming",
			Brand: "Sony", Price: price(19999), Condition: domain.ConditionA,
			Storage: "825GB", LocationCity: "Kharkiv", WarrantyMonths: 6, IsAvailable: true, StockCount: 0,
		},
		{
			Title: "Dell U2720Q 27\" 4K", Slug: "dell-u2720q", Category: "monitors",
			Brand: "Dell", Model: "U2720Q", Price: price(12499), Condition: domain.ConditionB,
			ScreenSize: "27\"", LocationCity: "Lviv", WarrantyMonths: 6, IsAvailable: true, StockCount: 2,
		},
		{
			Title: "Anker 65W USB-C Charger", Slug: "anker-65w-charger", Category: "accessories",
			Brand: "Anker", Price: price(899), Condition: domain.ConditionA,
			LocationCity: "Kyiv", WarrantyMonths: 1, IsAvailable: true, StockCount: 12,
		},
	}
}
