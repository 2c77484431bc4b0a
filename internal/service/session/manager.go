// Package session issues and checks the opaque bearer tokens held by
// customers and guests.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/xRWDev/ReTech/internal/domain"
	tokenrepo "github.com/xRWDev/ReTech/internal/repository/token"
)

const issueAttempts = 5

// ErrCollision is returned when every generated token already existed.
var ErrCollision = errors.New("token collision")

// Owner is whoever a token speaks for. Exactly one field is set.
type Owner struct {
	CustomerID string
	GuestID    string
}

// Meta describes a live token.
type Meta struct {
	Owner     Owner
	Kind      string
	ExpiresAt time.Time
}

type Manager struct {
	repo tokenrepo.Repository
	Now  func() time.Time
}

func NewManager(repo tokenrepo.Repository) *Manager {
	return &Manager{repo: repo, Now: time.Now}
}

// Issue stores a fresh random token of the given kind for owner.
func (m *Manager) Issue(ctx context.Context, owner Owner, kind string, ttl time.Duration) (string, error) {
	rec := tokenrepo.Token{Kind: kind, ExpiresAt: m.Now().Add(ttl)}
	if owner.CustomerID != "" {
		id := owner.CustomerID
		rec.CustomerID = &id
	} else {
		id := owner.GuestID
		rec.AnonymousID = &id
	}
	for range issueAttempts {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		rec.Token = token
		err = m.repo.Create(ctx, rec)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return "", err
		}
	}
	return "", ErrCollision
}

// Lookup returns the token's metadata when it exists, has the given kind
// and has not expired. Expired tokens are deleted on sight.
func (m *Manager) Lookup(ctx context.Context, token, kind string) (Meta, bool) {
	if token == "" {
		return Meta{}, false
	}
	rec, err := m.repo.Get(ctx, token)
	if err != nil || rec.Kind != kind {
		return Meta{}, false
	}
	if rec.Expired(m.Now()) {
		_ = m.repo.Delete(ctx, token)
		return Meta{}, false
	}
	meta := Meta{Kind: rec.Kind, ExpiresAt: rec.ExpiresAt}
	switch {
	case rec.CustomerID != nil:
		meta.Owner.CustomerID = *rec.CustomerID
	case rec.AnonymousID != nil:
		meta.Owner.GuestID = *rec.AnonymousID
	default:
		return Meta{}, false
	}
	return meta, true
}

// Consume is Lookup for single-use tokens: the token is deleted, and only
// the caller whose delete succeeds gets ok.
func (m *Manager) Consume(ctx context.Context, token, kind string) (Meta, bool) {
	meta, ok := m.Lookup(ctx, token, kind)
	if !ok {
		return Meta{}, false
	}
	if err := m.repo.Delete(ctx, token); err != nil {
		return Meta{}, false
	}
	return meta, true
}

// Revoke deletes one token. Unknown tokens are not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.repo.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// RevokeCustomer deletes every token the customer holds.
func (m *Manager) RevokeCustomer(ctx context.Context, customerID string) (int64, error) {
	return m.repo.DeleteForCustomer(ctx, customerID)
}

// Prune deletes all tokens that have expired by now.
func (m *Manager) Prune(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.Now())
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
