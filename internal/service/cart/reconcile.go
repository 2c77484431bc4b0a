package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/localcart"
	"github.com/xRWDev/ReTech/internal/logging"
	"github.com/xRWDev/ReTech/internal/metrics"
	cartrepo "github.com/xRWDev/ReTech/internal/repository/cart"
	"golang.org/x/sync/singleflight"
)

type guestCarts interface {
	Load(ctx context.Context, guestID string) (localcart.Cart, error)
	Clear(ctx context.Context, guestID string) error
}

// MergeResult counts guest lines written to the server cart.
type MergeResult struct {
	Merged int `json:"merged"`
	Failed int `json:"failed"`
}

// Reconciler moves a guest cart into the server cart of the user who just
// signed in.
type Reconciler struct {
	carts   *Service
	guests  guestCarts
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *logrus.Entry
}

func NewReconciler(carts *Service, guests guestCarts, m *metrics.Metrics, logger *logrus.Entry) *Reconciler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Reconciler{carts: carts, guests: guests, metrics: m, logger: logger}
}

// Reconcile copies every guest line into the user's cart, replacing the
// server quantity, then clears the guest cart. Lines that fail to write are
// reported in the returned error but do not stop the merge. If the server
// cart cannot be loaded nothing is merged and the guest cart is kept.
func (r *Reconciler) Reconcile(ctx context.Context, guestID, userID string) (MergeResult, error) {
	if guestID == "" || userID == "" {
		return MergeResult{}, nil
	}
	// Keyed by both ids so a second account signing in from the same
	// browser never receives the first account's merge result.
	v, err, _ := r.group.Do(guestID+"|"+userID, func() (any, error) {
		return r.reconcile(ctx, guestID, userID)
	})
	res, _ := v.(MergeResult)
	return res, err
}

func (r *Reconciler) reconcile(ctx context.Context, guestID, userID string) (MergeResult, error) {
	var res MergeResult
	local, err := r.guests.Load(ctx, guestID)
	if err != nil {
		return res, fmt.Errorf("load guest cart: %w", err)
	}
	if local.Empty() {
		return res, nil
	}

	logger := r.logger.WithFields(logrus.Fields{"guest_id": guestID, "user_id": userID})
	cart, err := r.carts.Ensure(ctx, userID)
	if err != nil {
		logger.WithError(err).Warn("server cart unavailable, guest cart kept")
		return res, err
	}

	var errs []error
	for _, item := range local.Items {
		err := r.carts.repo.UpsertLine(ctx, cartrepo.UpsertLineInput{
			CartID:     cart.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceAtAdd: item.PriceAtAdd,
		})
		r.metrics.MergedLine(err)
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("merge product %s: %w", item.ProductID, err))
			logger.WithError(err).WithField("product_id", item.ProductID).Warn("guest cart line not merged")
			continue
		}
		res.Merged++
	}

	if err := r.guests.Clear(ctx, guestID); err != nil {
		errs = append(errs, fmt.Errorf("clear guest cart: %w", err))
	}
	r.carts.refresh(ctx, userID)
	logger.WithFields(logrus.Fields{"merged": res.Merged, "failed": res.Failed}).Info("guest cart merged")
	return res, errors.Join(errs...)
}
