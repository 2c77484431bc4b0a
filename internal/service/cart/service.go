// Package cart implements the signed-in user's server cart with optimistic
// cache updates, and the merge of guest carts into it at login.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/logging"
	"github.com/xRWDev/ReTech/internal/metrics"
	"github.com/xRWDev/ReTech/internal/querycache"
	cartrepo "github.com/xRWDev/ReTech/internal/repository/cart"
	"golang.org/x/sync/singleflight"
)

type cartRepo interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	Ensure(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertLine(ctx context.Context, in cartrepo.UpsertLineInput) error
	DeleteLine(ctx context.Context, cartID, productID string) error
	DeleteLines(ctx context.Context, cartID string) error
}

type productLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service reads and mutates server carts. Reads are served from a per-user
// cache; writes apply to the cache first and are reverted if the database
// write fails.
type Service struct {
	repo     cartRepo
	products productLookup
	cache    *querycache.Cache[string, *domain.Cart]
	group    singleflight.Group
	metrics  *metrics.Metrics
	logger   *logrus.Entry
}

func New(repo cartRepo, products productLookup, m *metrics.Metrics, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		repo:     repo,
		products: products,
		cache:    querycache.New[string, *domain.Cart]((*domain.Cart).Clone),
		metrics:  m,
		logger:   logger,
	}
}

// Fetch returns the user's cart, or nil when none exists yet.
func (s *Service) Fetch(ctx context.Context, userID string) (*domain.Cart, error) {
	if c, ok := s.cache.Get(userID); ok {
		return c, nil
	}
	v, err, _ := s.group.Do(userID, func() (any, error) {
		c, err := s.repo.GetByUser(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			c, err = nil, nil
		}
		if err != nil {
			return nil, err
		}
		s.cache.Set(userID, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart).Clone(), nil
}

// Ensure returns the user's cart, creating an empty one if needed.
func (s *Service) Ensure(ctx context.Context, userID string) (*domain.Cart, error) {
	if c, ok := s.cache.Get(userID); ok && c != nil {
		return c, nil
	}
	c, err := s.repo.Ensure(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ensure cart: %w", err)
	}
	s.cache.Set(userID, c)
	return c.Clone(), nil
}

// AddItem adds qty units of a product, never exceeding the product's stock.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		return &domain.ValidationError{Fields: map[string]string{"quantity": "must be at least 1"}}
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.IsAvailable {
		return domain.ErrProductUnavailable
	}
	if !product.Sellable() {
		return domain.ErrOutOfStock
	}
	cart, err := s.Ensure(ctx, userID)
	if err != nil {
		return err
	}

	existing := 0
	if i := cart.Line(productID); i >= 0 {
		existing = cart.Lines[i].Quantity
	}
	next := product.ClampQuantity(existing + qty)
	if next <= 0 {
		return domain.ErrOutOfStock
	}

	return s.mutate(ctx, "add", userID,
		func(c *domain.Cart) *domain.Cart {
			if i := c.Line(productID); i >= 0 {
				c.Lines[i].Quantity = next
				return c
			}
			c.Lines = append(c.Lines, domain.CartLine{
				ID:         "temp-" + productID,
				CartID:     c.ID,
				ProductID:  productID,
				Quantity:   next,
				PriceAtAdd: product.Price,
				Product:    product.Ref(),
			})
			return c
		},
		func(ctx context.Context) error {
			return s.repo.UpsertLine(ctx, cartrepo.UpsertLineInput{
				CartID:     cart.ID,
				ProductID:  productID,
				Quantity:   next,
				PriceAtAdd: product.Price,
			})
		},
	)
}

// UpdateQuantity sets a line's quantity. qty <= 0 removes the line; larger
// values are capped by the stock known for the line's product.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, qty int) error {
	if qty <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	cart, err := s.Fetch(ctx, userID)
	if err != nil || cart == nil {
		return err
	}
	i := cart.Line(productID)
	if i < 0 {
		return nil
	}
	line := cart.Lines[i]
	next := qty
	if line.Product != nil && next > line.Product.StockCount {
		next = line.Product.StockCount
	}
	if next <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	return s.mutate(ctx, "update", userID,
		func(c *domain.Cart) *domain.Cart {
			if i := c.Line(productID); i >= 0 {
				c.Lines[i].Quantity = next
			}
			return c
		},
		func(ctx context.Context) error {
			return s.repo.UpsertLine(ctx, cartrepo.UpsertLineInput{
				CartID:     cart.ID,
				ProductID:  productID,
				Quantity:   next,
				PriceAtAdd: line.PriceAtAdd,
			})
		},
	)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	cart, err := s.Fetch(ctx, userID)
	if err != nil || cart == nil {
		return err
	}
	return s.mutate(ctx, "remove", userID,
		func(c *domain.Cart) *domain.Cart {
			if i := c.Line(productID); i >= 0 {
				c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			}
			return c
		},
		func(ctx context.Context) error {
			return s.repo.DeleteLine(ctx, cart.ID, productID)
		},
	)
}

// Clear empties the cart. Used after an order is placed.
func (s *Service) Clear(ctx context.Context, userID string) error {
	cart, err := s.Fetch(ctx, userID)
	if err != nil || cart == nil {
		return err
	}
	return s.mutate(ctx, "clear", userID,
		func(c *domain.Cart) *domain.Cart {
			c.Lines = []domain.CartLine{}
			return c
		},
		func(ctx context.Context) error {
			return s.repo.DeleteLines(ctx, cart.ID)
		},
	)
}

func (s *Service) mutate(ctx context.Context, op, userID string, apply func(*domain.Cart) *domain.Cart, write func(context.Context) error) error {
	err := s.cache.Mutate(ctx, userID, func(c *domain.Cart) *domain.Cart {
		if c == nil {
			return nil
		}
		return apply(c)
	}, write)
	s.metrics.CartMutation(op, err)
	if err != nil {
		s.metrics.CartRollback(op)
		s.logger.WithError(err).WithFields(logrus.Fields{"op": op, "user_id": userID}).Warn("cart write failed, optimistic update reverted")
		return err
	}
	s.refresh(ctx, userID)
	return nil
}

// refresh reloads the cart after a successful write so the cache holds
// server state again. Failures leave the entry invalidated.
func (s *Service) refresh(ctx context.Context, userID string) {
	s.cache.Invalidate(userID)
	if _, err := s.Fetch(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("cart refetch failed")
	}
}
