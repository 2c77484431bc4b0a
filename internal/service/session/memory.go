package session

import (
	"context"
	"sync"
	"time"

	"github.com/xRWDev/ReTech/internal/domain"
	tokenrepo "github.com/xRWDev/ReTech/internal/repository/token"
)

// MemoryRepo is an in-process token repository for tests and tooling that
// runs without Postgres.
type MemoryRepo struct {
	mu     sync.RWMutex
	tokens map[string]tokenrepo.Token
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tokens: make(map[string]tokenrepo.Token)}
}

func (r *MemoryRepo) Create(_ context.Context, t tokenrepo.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tokens[t.Token]; exists {
		return domain.ErrAlreadyExists
	}
	r.tokens[t.Token] = t
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *MemoryRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *MemoryRepo) DeleteForCustomer(_ context.Context, customerID string) (int64, error) {
	return r.deleteWhere(func(t tokenrepo.Token) bool {
		return t.CustomerID != nil && *t.CustomerID == customerID
	}), nil
}

func (r *MemoryRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	return r.deleteWhere(func(t tokenrepo.Token) bool { return t.Expired(before) }), nil
}

// Has reports whether token is stored.
func (r *MemoryRepo) Has(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tokens[token]
	return ok
}

// Kind returns the stored kind of token, or "".
func (r *MemoryRepo) Kind(token string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokens[token].Kind
}

func (r *MemoryRepo) deleteWhere(match func(tokenrepo.Token) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.tokens {
		if match(t) {
			delete(r.tokens, k)
			n++
		}
	}
	return n
}
