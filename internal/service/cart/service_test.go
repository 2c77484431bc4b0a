package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xRWDev/ReTech/internal/domain"
	cartrepo "github.com/xRWDev/ReTech/internal/repository/cart"
)

// memoryRepo keeps carts in memory and lets tests fail individual writes.
type memoryRepo struct {
	mu        sync.Mutex
	carts     map[string]*domain.Cart
	products  map[string]domain.Product
	getCalls  int
	ensureErr error
	upsertErr map[string]error
	deleteErr error
	upserts   []cartrepo.UpsertLineInput
	deletes   []string
	onWrite   func()
}

func newMemoryRepo(products ...domain.Product) *memoryRepo {
	r := &memoryRepo{
		carts:     make(map[string]*domain.Cart),
		products:  make(map[string]domain.Product),
		upsertErr: make(map[string]error),
	}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *memoryRepo) GetByUser(_ context.Context, userID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	c, ok := r.carts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *memoryRepo) Ensure(ctx context.Context, userID string) (*domain.Cart, error) {
	if r.ensureErr != nil {
		return nil, r.ensureErr
	}
	r.mu.Lock()
	if _, ok := r.carts[userID]; !ok {
		r.carts[userID] = &domain.Cart{ID: "cart-" + userID, UserID: userID, Lines: []domain.CartLine{}}
	}
	r.mu.Unlock()
	return r.GetByUser(ctx, userID)
}

func (r *memoryRepo) UpsertLine(_ context.Context, in cartrepo.UpsertLineInput) error {
	if r.onWrite != nil {
		r.onWrite()
	}
	if err := r.upsertErr[in.ProductID]; err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts = append(r.upserts, in)
	c := r.cartByID(in.CartID)
	p := r.products[in.ProductID]
	if i := c.Line(in.ProductID); i >= 0 {
		c.Lines[i].Quantity = in.Quantity
		c.Lines[i].PriceAtAdd = in.PriceAtAdd
		return nil
	}
	c.Lines = append(c.Lines, domain.CartLine{
		ID: "line-" + in.ProductID, CartID: in.CartID, ProductID: in.ProductID,
		Quantity: in.Quantity, PriceAtAdd: in.PriceAtAdd, Product: p.Ref(),
	})
	return nil
}

func (r *memoryRepo) DeleteLine(_ context.Context, cartID, productID string) error {
	if r.onWrite != nil {
		r.onWrite()
	}
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, productID)
	c := r.cartByID(cartID)
	if i := c.Line(productID); i >= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
	return nil
}

func (r *memoryRepo) DeleteLines(_ context.Context, cartID string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cartByID(cartID).Lines = []domain.CartLine{}
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *memoryRepo) cartByID(id string) *domain.Cart {
	for _, c := range r.carts {
		if c.ID == id {
			return c
		}
	}
	panic("unknown cart " + id)
}

func phone(id string, price int64, stock int) domain.Product {
	return domain.Product{ID: id, Title: "Phone " + id, Price: decimal.NewFromInt(price), StockCount: stock, IsAvailable: true}
}

func newService(repo *memoryRepo) *Service {
	return New(repo, repo, nil, nil)
}

func TestAddItemClampsToStock(t *testing.T) {
	repo := newMemoryRepo(phone("p1", 1000, 4))
	svc := newService(repo)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 2))
	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 5))

	cart, err := svc.Fetch(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 4, cart.Lines[0].Quantity)
	assert.Equal(t, 4, repo.upserts[1].Quantity)
	assert.True(t, repo.upserts[1].PriceAtAdd.Equal(decimal.NewFromInt(1000)))
}

func TestAddItemRejectsUnsellable(t *testing.T) {
	hidden := phone("p1", 1000, 3)
	hidden.IsAvailable = false
	repo := newMemoryRepo(hidden, phone("p2", 500, 0))
	svc := newService(repo)
	ctx := context.Background()

	require.ErrorIs(t, svc.AddItem(ctx, "u1", "p1", 1), domain.ErrProductUnavailable)
	require.ErrorIs(t, svc.AddItem(ctx, "u1", "p2", 1), domain.ErrOutOfStock)
	require.ErrorIs(t, svc.AddItem(ctx, "u1", "missing", 1), domain.ErrNotFound)

	var verr *domain.ValidationError
	require.ErrorAs(t, svc.AddItem(ctx, "u1", "p2", 0), &verr)
	assert.Empty(t, repo.upserts)
	assert.Empty(t, repo.carts, "rejected adds must not create a cart")
}

func TestAddItemShowsOptimisticLineThenRollsBack(t *testing.T) {
	repo := newMemoryRepo(phone("p1", 1000, 5), phone("p2", 300, 5))
	svc := newService(repo)
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 1))

	before, err := svc.Fetch(ctx, "u1")
	require.NoError(t, err)
	beforeJSON, _ := json.Marshal(before)

	var during *domain.Cart
	repo.onWrite = func() { during, _ = svc.cache.Get("u1") }
	repo.upsertErr["p2"] = errors.New("network down")

	err = svc.AddItem(ctx, "u1", "p2", 2)
	require.Error(t, err)

	require.NotNil(t, during)
	require.Len(t, during.Lines, 2)
	assert.Equal(t, "temp-p2", during.Lines[1].ID)
	assert.Equal(t, 2, during.Lines[1].Quantity)

	after, err := svc.Fetch(ctx, "u1")
	require.NoError(t, err)
	afterJSON, _ := json.Marshal(after)
	assert.JSONEq(t, string(beforeJSON), string(afterJSON))
}

func TestUpdateQuantity(t *testing.T) {
	repo := newMemoryRepo(phone("p1", 1000, 3))
	svc := newService(repo)
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 1))

	require.NoError(t, svc.UpdateQuantity(ctx, "u1", "p1", 10))
	cart, _ := svc.Fetch(ctx, "u1")
	assert.Equal(t, 3, cart.Lines[0].Quantity)

	writes := len(repo.upserts)
	require.NoError(t, svc.UpdateQuantity(ctx, "u1", "other", 2))
	assert.Len(t, repo.upserts, writes)

	require.NoError(t, svc.UpdateQuantity(ctx, "u1", "p1", 0))
	cart, _ = svc.Fetch(ctx, "u1")
	assert.Empty(t, cart.Lines)
	assert.Equal(t, []string{"p1"}, repo.deletes)
}

func TestRemoveItemFailureRestoresLine(t *testing.T) {
	repo := newMemoryRepo(phone("p1", 1000, 3))
	svc := newService(repo)
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 1))

	repo.deleteErr = errors.New("timeout")
	require.Error(t, svc.RemoveItem(ctx, "u1", "p1"))

	cart, err := svc.Fetch(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
}

func TestFetchWithoutCart(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo)

	cart, err := svc.Fetch(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, cart)

	require.NoError(t, svc.RemoveItem(context.Background(), "nobody", "p1"))
	require.NoError(t, svc.Clear(context.Background(), "nobody"))
}

func TestFetchIsCached(t *testing.T) {
	repo := newMemoryRepo(phone("p1", 1000, 3))
	svc := newService(repo)
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 1))

	calls := repo.getCalls
	for i := 0; i < 3; i++ {
		_, err := svc.Fetch(ctx, "u1")
		require.NoError(t, err)
	}
	assert.Equal(t, calls, repo.getCalls)
}

func TestClear(t *testing.T) {
	repo := newMemoryRepo(phone("p1", 1000, 3), phone("p2", 10, 3))
	svc := newService(repo)
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 1))
	require.NoError(t, svc.AddItem(ctx, "u1", "p2", 1))

	require.NoError(t, svc.Clear(ctx, "u1"))
	cart, err := svc.Fetch(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}
