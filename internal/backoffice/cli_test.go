package backoffice

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xRWDev/ReTech/internal/domain"
)

type fakeOrders struct {
	actor  domain.Identity
	id     string
	status domain.OrderStatus
	err    error
}

func (f *fakeOrders) UpdateStatus(_ context.Context, actor domain.Identity, id string, status domain.OrderStatus) (*domain.Order, error) {
	f.actor, f.id, f.status = actor, id, status
	if f.err != nil && !errors.Is(f.err, errRestock) {
		return nil, f.err
	}
	return &domain.Order{ID: id, Status: status}, f.err
}

var errRestock = errors.New("restock failed")

type fakeAccounts struct {
	granted []string
	revoked []string
}

func (f *fakeAccounts) RevokeSessions(_ context.Context, email string) (int64, error) {
	if email == "nobody@retech.test" {
		return 0, domain.ErrNotFound
	}
	f.revoked = append(f.revoked, email)
	return 2, nil
}

func (f *fakeAccounts) PruneTokens(context.Context) (int64, error) { return 7, nil }

func (f *fakeAccounts) GrantRole(_ context.Context, email string, role domain.Role) (*domain.Customer, error) {
	if role != domain.RoleAdmin {
		return nil, errors.New("unexpected role")
	}
	f.granted = append(f.granted, email)
	return &domain.Customer{ID: "c1", Email: email}, nil
}

type fakeProducts struct{ slugs []string }

func (f *fakeProducts) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	f.slugs = append(f.slugs, p.Slug)
	return &p, nil
}

func run(t *testing.T, b *Backend, args ...string) (string, error) {
	t.Helper()
	released := false
	open := func(context.Context) (*Backend, func(), error) {
		return b, func() { released = true }, nil
	}
	cmd := NewRootCommand(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		assert.True(t, released, "backend should be released")
	}
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, path := range [][]string{{"order", "status"}, {"product", "import"}, {"grant-admin"}, {"revoke-sessions"}, {"tokens", "prune"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestOrderStatus(t *testing.T) {
	orders := &fakeOrders{}
	out, err := run(t, &Backend{Orders: orders}, "order", "status", "o-1", "PAID")
	require.NoError(t, err)
	assert.Equal(t, "o-1", orders.id)
	assert.Equal(t, domain.OrderStatusPaid, orders.status)
	assert.True(t, orders.actor.IsAdmin)
	assert.Contains(t, out, "order o-1 is now PAID")
}

func TestOrderStatusRestockFailureStillReportsStatus(t *testing.T) {
	orders := &fakeOrders{err: errRestock}
	out, err := run(t, &Backend{Orders: orders}, "order", "status", "o-1", "CANCELLED")
	require.ErrorIs(t, err, errRestock)
	assert.Contains(t, out, "order o-1 is now CANCELLED")
}

func TestOrderStatusRejected(t *testing.T) {
	orders := &fakeOrders{err: domain.ErrInvalidTransition}
	out, err := run(t, &Backend{Orders: orders}, "order", "status", "o-1", "NEW")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.NotContains(t, out, "is now")
}

func TestOrderStatusNeedsTwoArgs(t *testing.T) {
	_, err := run(t, &Backend{Orders: &fakeOrders{}}, "order", "status", "o-1")
	require.Error(t, err)
}

func TestGrantAdmin(t *testing.T) {
	accounts := &fakeAccounts{}
	out, err := run(t, &Backend{Accounts: accounts}, "grant-admin", "ops@retech.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@retech.test"}, accounts.granted)
	assert.Contains(t, out, "ops@retech.test is now an admin")
}

func TestRevokeSessions(t *testing.T) {
	accounts := &fakeAccounts{}
	out, err := run(t, &Backend{Accounts: accounts}, "revoke-sessions", "ops@retech.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@retech.test"}, accounts.revoked)
	assert.Contains(t, out, "revoked 2 tokens")

	_, err = run(t, &Backend{Accounts: accounts}, "revoke-sessions", "nobody@retech.test")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTokensPrune(t *testing.T) {
	out, err := run(t, &Backend{Accounts: &fakeAccounts{}}, "tokens", "prune")
	require.NoError(t, err)
	assert.Contains(t, out, "pruned 7 expired tokens")
}

func TestProductImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	csv := "slug,title,category,brand,model,price,condition,stock\n" +
		"iphone-13,iPhone 13,smartphones,Apple,iPhone 13,30000,A,2\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	products := &fakeProducts{}
	out, err := run(t, &Backend{Products: products}, "product", "import", "--file", path)
	require.NoError(t, err)
	assert.Equal(t, []string{"iphone-13"}, products.slugs)
	assert.Contains(t, out, "imported 1, skipped 0")
}

func TestProductImportRequiresFile(t *testing.T) {
	_, err := run(t, &Backend{Products: &fakeProducts{}}, "product", "import")
	require.Error(t, err)
}

func TestOpenFailure(t *testing.T) {
	boom := errors.New("db down")
	cmd := NewRootCommand(func(context.Context) (*Backend, func(), error) { return nil, nil, boom })
	cmd.SetArgs([]string{"grant-admin", "a@b.c"})
	cmd.SetOut(&bytes.Buffer{})
	require.ErrorIs(t, cmd.Execute(), boom)
}
