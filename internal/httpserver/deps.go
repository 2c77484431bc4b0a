package httpserver

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/localcart"
	"github.com/xRWDev/ReTech/internal/metrics"
	productrepo "github.com/xRWDev/ReTech/internal/repository/product"
	"github.com/xRWDev/ReTech/internal/service/anonymous"
	cartsvc "github.com/xRWDev/ReTech/internal/service/cart"
	"github.com/xRWDev/ReTech/internal/service/catalog"
	customersvc "github.com/xRWDev/ReTech/internal/service/customer"
	"github.com/xRWDev/ReTech/internal/service/dashboard"
	ordersvc "github.com/xRWDev/ReTech/internal/service/order"
)

type customerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, customersvc.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (customersvc.Tokens, error)
	Logout(ctx context.Context, accessToken string) error
	LookupByToken(ctx context.Context, token string) (domain.Identity, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	UpdateProfile(ctx context.Context, userID string, in customersvc.ProfileInput) (*domain.Customer, error)
}

type guestService interface {
	Issue(ctx context.Context) (anonymous.Session, error)
	LookupByToken(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

type catalogService interface {
	List(ctx context.Context, f productrepo.Filter) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Similar(ctx context.Context, p domain.Product) ([]domain.Product, error)
	Featured(ctx context.Context) ([]domain.Product, error)
	FilterOptions(ctx context.Context) (*productrepo.FilterOptions, error)
	AdminList(ctx context.Context, actor domain.Identity) ([]domain.Product, error)
	Create(ctx context.Context, actor domain.Identity, in catalog.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, actor domain.Identity, id string, in catalog.ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, actor domain.Identity, id string) error
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type serverCarts interface {
	Fetch(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, qty int) error
	UpdateQuantity(ctx context.Context, userID, productID string, qty int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

type guestCarts interface {
	Load(ctx context.Context, guestID string) (localcart.Cart, error)
	Update(ctx context.Context, guestID string, fn func(*localcart.Cart) error) (localcart.Cart, error)
	Clear(ctx context.Context, guestID string) error
}

type cartReconciler interface {
	Reconcile(ctx context.Context, guestID, userID string) (cartsvc.MergeResult, error)
}

type recentlyViewed interface {
	Add(ctx context.Context, viewerID string, p domain.ProductRef) error
	List(ctx context.Context, viewerID string) ([]domain.ProductRef, error)
}

type orderService interface {
	Place(ctx context.Context, userID string, in ordersvc.PlaceInput) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	Get(ctx context.Context, actor domain.Identity, id string) (*domain.Order, error)
	ListAll(ctx context.Context, actor domain.Identity, status domain.OrderStatus) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, actor domain.Identity, id string, status domain.OrderStatus) (*domain.Order, error)
}

type dashboardService interface {
	Stats(ctx context.Context, actor domain.Identity) (*dashboard.Stats, error)
}

// Deps are the services the router dispatches to.
type Deps struct {
	Customers   customerService
	Guests      guestService
	Catalog     catalogService
	Categories  categoryService
	Carts       serverCarts
	GuestCarts  guestCarts
	Reconciler  cartReconciler
	Recent      recentlyViewed
	Orders      orderService
	Dashboard   dashboardService
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Probes      []Probe
	CORSOrigins []string
}

func (d Deps) validate() error {
	var errs []error
	check := func(ok bool, name string) {
		if !ok {
			errs = append(errs, errors.New(name+" dependency missing"))
		}
	}
	check(d.Customers != nil, "customers")
	check(d.Guests != nil, "guests")
	check(d.Catalog != nil, "catalog")
	check(d.Categories != nil, "categories")
	check(d.Carts != nil, "carts")
	check(d.GuestCarts != nil, "guest carts")
	check(d.Reconciler != nil, "reconciler")
	check(d.Recent != nil, "recently viewed")
	check(d.Orders != nil, "orders")
	check(d.Dashboard != nil, "dashboard")
	return errors.Join(errs...)
}
