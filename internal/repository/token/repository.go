package token

import (
	"context"
	"time"
)

const (
	KindAccess    = "access"
	KindRefresh   = "refresh"
	KindAnonymous = "anonymous"
)

// Token binds an opaque bearer string to a customer or a guest.
type Token struct {
	Token       string
	CustomerID  *string
	AnonymousID *string
	Kind        string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the token is past its lifetime at now.
func (t Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	// DeleteForCustomer drops every token the customer holds and returns how many.
	DeleteForCustomer(ctx context.Context, customerID string) (int64, error)
	// DeleteExpired drops tokens that expired at or before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
