package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/localcart"
	"github.com/xRWDev/ReTech/internal/logging"
	"github.com/xRWDev/ReTech/internal/metrics"
	productrepo "github.com/xRWDev/ReTech/internal/repository/product"
	"github.com/xRWDev/ReTech/internal/service/anonymous"
	cartsvc "github.com/xRWDev/ReTech/internal/service/cart"
	"github.com/xRWDev/ReTech/internal/service/catalog"
	customersvc "github.com/xRWDev/ReTech/internal/service/customer"
	"github.com/xRWDev/ReTech/internal/service/dashboard"
	ordersvc "github.com/xRWDev/ReTech/internal/service/order"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
	guestToken = "guest-token"
)

type stubCustomers struct {
	customer  *domain.Customer
	loginErr  error
	signErr   error
	loggedOut []string
	profile   *customersvc.ProfileInput
}

func (s *stubCustomers) Signup(_ context.Context, in customersvc.SignupInput) (*domain.Customer, error) {
	if s.signErr != nil {
		return nil, s.signErr
	}
	return &domain.Customer{ID: "u1", Email: in.Email}, nil
}

func (s *stubCustomers) Login(_ context.Context, _, _ string) (*domain.Customer, customersvc.Tokens, error) {
	if s.loginErr != nil {
		return nil, customersvc.Tokens{}, s.loginErr
	}
	return s.customer, customersvc.Tokens{AccessToken: userToken, RefreshToken: "refresh", ExpiresIn: 3600}, nil
}

func (s *stubCustomers) Refresh(_ context.Context, refreshToken string) (customersvc.Tokens, error) {
	if refreshToken != "refresh" {
		return customersvc.Tokens{}, customersvc.ErrInvalidToken
	}
	return customersvc.Tokens{AccessToken: userToken, RefreshToken: "refresh-2", ExpiresIn: 3600}, nil
}

func (s *stubCustomers) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

func (s *stubCustomers) LookupByToken(_ context.Context, token string) (domain.Identity, error) {
	switch token {
	case userToken:
		return domain.Identity{UserID: "u1"}, nil
	case adminToken:
		return domain.Identity{UserID: "admin", IsAdmin: true}, nil
	}
	return domain.Identity{}, customersvc.ErrInvalidToken
}

func (s *stubCustomers) Get(_ context.Context, id string) (*domain.Customer, error) {
	return &domain.Customer{ID: id, Email: id + "@example.com"}, nil
}

func (s *stubCustomers) UpdateProfile(_ context.Context, id string, in customersvc.ProfileInput) (*domain.Customer, error) {
	if in.Name == "" {
		return nil, &domain.ValidationError{Fields: map[string]string{"name": "required"}}
	}
	s.profile = &in
	return &domain.Customer{ID: id, Email: id + "@example.com", Name: in.Name, Phone: in.Phone}, nil
}

type stubGuests struct{}

func (stubGuests) Issue(context.Context) (anonymous.Session, error) {
	return anonymous.Session{AccessToken: guestToken, GuestID: "g1", ExpiresIn: 60}, nil
}

func (stubGuests) Revoke(context.Context, string) error { return nil }

func (stubGuests) LookupByToken(_ context.Context, token string) (string, error) {
	if token == guestToken {
		return "g1", nil
	}
	return "", anonymous.ErrInvalidToken
}

type stubCatalog struct {
	products   map[string]domain.Product
	lastFilter productrepo.Filter
}

func (s *stubCatalog) List(_ context.Context, f productrepo.Filter) ([]domain.Product, error) {
	s.lastFilter = f
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubCatalog) Get(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *stubCatalog) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubCatalog) Similar(context.Context, domain.Product) ([]domain.Product, error) {
	return []domain.Product{}, nil
}

func (s *stubCatalog) Featured(context.Context) ([]domain.Product, error) {
	return []domain.Product{}, nil
}

func (s *stubCatalog) FilterOptions(context.Context) (*productrepo.FilterOptions, error) {
	return &productrepo.FilterOptions{Brands: []string{"Apple"}}, nil
}

func (s *stubCatalog) AdminList(_ context.Context, actor domain.Identity) ([]domain.Product, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}
	return []domain.Product{}, nil
}

func (s *stubCatalog) Create(_ context.Context, _ domain.Identity, in catalog.ProductInput) (*domain.Product, error) {
	return &domain.Product{ID: "new", Title: in.Title}, nil
}

func (s *stubCatalog) Update(_ context.Context, _ domain.Identity, id string, in catalog.ProductInput) (*domain.Product, error) {
	return &domain.Product{ID: id, Title: in.Title}, nil
}

func (s *stubCatalog) Delete(context.Context, domain.Identity, string) error {
	return nil
}

type stubCategories struct{}

func (stubCategories) List(context.Context) ([]domain.Category, error) {
	return domain.Categories, nil
}

type stubCarts struct {
	cart   *domain.Cart
	addErr error
	added  []string
}

func (s *stubCarts) Fetch(context.Context, string) (*domain.Cart, error) {
	return s.cart.Clone(), nil
}

func (s *stubCarts) AddItem(_ context.Context, _, productID string, qty int) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.added = append(s.added, productID)
	if s.cart == nil {
		s.cart = &domain.Cart{ID: "cart-1"}
	}
	s.cart.Lines = append(s.cart.Lines, domain.CartLine{ProductID: productID, Quantity: qty, PriceAtAdd: decimal.NewFromInt(100)})
	return nil
}

func (s *stubCarts) UpdateQuantity(context.Context, string, string, int) error { return nil }
func (s *stubCarts) RemoveItem(context.Context, string, string) error          { return nil }
func (s *stubCarts) Clear(context.Context, string) error                       { return nil }

type stubReconciler struct {
	calls [][2]string
}

func (s *stubReconciler) Reconcile(_ context.Context, guestID, userID string) (cartsvc.MergeResult, error) {
	s.calls = append(s.calls, [2]string{guestID, userID})
	return cartsvc.MergeResult{Merged: 1}, nil
}

type stubOrders struct {
	placed   *ordersvc.PlaceInput
	placeErr error
	order    *domain.Order
}

func (s *stubOrders) Place(_ context.Context, _ string, in ordersvc.PlaceInput) (*domain.Order, error) {
	s.placed = &in
	return s.order, s.placeErr
}

func (s *stubOrders) ListForUser(context.Context, string) ([]domain.Order, error) {
	return []domain.Order{}, nil
}

func (s *stubOrders) Get(context.Context, domain.Identity, string) (*domain.Order, error) {
	return nil, domain.ErrNotFound
}

func (s *stubOrders) ListAll(context.Context, domain.Identity, domain.OrderStatus) ([]domain.Order, error) {
	return []domain.Order{}, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, _ domain.Identity, id string, status domain.OrderStatus) (*domain.Order, error) {
	if status == domain.OrderStatusDone {
		return nil, domain.ErrInvalidTransition
	}
	return &domain.Order{ID: id, Status: status}, nil
}

type stubDashboard struct{}

func (stubDashboard) Stats(context.Context, domain.Identity) (*dashboard.Stats, error) {
	return &dashboard.Stats{
		TotalProducts: 2,
		InStock:       1,
		OrdersToday:   4,
		Revenue:       decimal.NewFromInt(30000),
		OrdersByDay:   []dashboard.DayCount{{Date: "2026-03-14", Orders: 4}},
	}, nil
}

type testEnv struct {
	router     *gin.Engine
	customers  *stubCustomers
	catalog    *stubCatalog
	carts      *stubCarts
	guestCarts *localcart.Store
	recent     *localcart.RecentlyViewed
	reconciler *stubReconciler
	orders     *stubOrders
	registry   *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

func newTestEnvWith(t *testing.T, customize func(*Deps)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	storage := localcart.NewMemoryStorage()
	env := &testEnv{
		customers: &stubCustomers{customer: &domain.Customer{ID: "u1", Email: "user@example.com"}},
		catalog: &stubCatalog{products: map[string]domain.Product{
			"p1": {ID: "p1", Slug: "iphone-13", Title: "iPhone 13", Price: decimal.NewFromInt(15000), IsAvailable: true, StockCount: 3},
			"p2": {ID: "p2", Slug: "old-tab", Title: "Old tablet", Price: decimal.NewFromInt(900), IsAvailable: false},
		}},
		carts:      &stubCarts{},
		guestCarts: localcart.NewStore(storage, nil),
		recent:     localcart.NewRecentlyViewed(storage),
		reconciler: &stubReconciler{},
		orders:     &stubOrders{},
		registry:   prometheus.NewRegistry(),
	}
	deps := Deps{
		Customers:   env.customers,
		Guests:      stubGuests{},
		Catalog:     env.catalog,
		Categories:  stubCategories{},
		Carts:       env.carts,
		GuestCarts:  env.guestCarts,
		Reconciler:  env.reconciler,
		Recent:      env.recent,
		Orders:      env.orders,
		Dashboard:   stubDashboard{},
		Metrics:     metrics.NewWithRegisterer(env.registry),
		Gatherer:    env.registry,
		CORSOrigins: []string{"http://localhost:5173"},
	}
	if customize != nil {
		customize(&deps)
	}
	router, err := buildRouter(logging.Discard(), deps)
	require.NoError(t, err)
	env.router = router
	return env
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
