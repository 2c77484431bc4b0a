// Package order places orders from the server cart and drives them through
// their status lifecycle.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/logging"
	"github.com/xRWDev/ReTech/internal/messaging/kafka"
	"github.com/xRWDev/ReTech/internal/metrics"
	orderrepo "github.com/xRWDev/ReTech/internal/repository/order"
)

type stockAdjuster interface {
	Adjust(ctx context.Context, items []domain.StockAdjustment, increase bool) error
}

type cartClearer interface {
	Clear(ctx context.Context, userID string) error
}

type Service struct {
	repo      orderrepo.Repository
	inventory stockAdjuster
	carts     cartClearer
	events    kafka.Publisher
	metrics   *metrics.Metrics
	logger    *logrus.Entry
	now       func() time.Time
}

func New(repo orderrepo.Repository, inventory stockAdjuster, carts cartClearer, events kafka.Publisher, m *metrics.Metrics, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	if events == nil {
		events = kafka.NoopPublisher{}
	}
	return &Service{
		repo:      repo,
		inventory: inventory,
		carts:     carts,
		events:    events,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// LineSnapshot is one purchased line as seen at checkout.
type LineSnapshot struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type PlaceInput struct {
	Name         string              `json:"name"`
	Phone        string              `json:"phone"`
	DeliveryType domain.DeliveryType `json:"deliveryType"`
	City         string              `json:"city"`
	Address      string              `json:"address"`
	Comment      string              `json:"comment"`
	Items        []LineSnapshot      `json:"-"`
}

func (in *PlaceInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.City = strings.TrimSpace(in.City)
	in.Address = strings.TrimSpace(in.Address)
	in.Comment = strings.TrimSpace(in.Comment)
}

func (in PlaceInput) validate() error {
	verr := &domain.ValidationError{}
	if in.Name == "" {
		verr.Add("name", "required")
	}
	if in.Phone == "" {
		verr.Add("phone", "required")
	}
	switch in.DeliveryType {
	case domain.DeliveryCourier:
		if in.City == "" {
			verr.Add("city", "required for courier delivery")
		}
		if in.Address == "" {
			verr.Add("address", "required for courier delivery")
		}
	case domain.DeliveryPickup:
	default:
		verr.Add("deliveryType", "must be COURIER or PICKUP")
	}
	if len(in.Items) == 0 {
		verr.Add("items", "cart is empty")
	}
	for i, it := range in.Items {
		if it.Quantity <= 0 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		if it.Price.IsNegative() {
			verr.Add(fmt.Sprintf("items[%d].price", i), "must not be negative")
		}
	}
	return verr.OrNil()
}

// SnapshotLines converts the cart's lines into order lines priced at the
// price captured when each was added.
func SnapshotLines(cart *domain.Cart) []LineSnapshot {
	if cart == nil {
		return nil
	}
	out := make([]LineSnapshot, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		title := "Product"
		if l.Product != nil && l.Product.Title != "" {
			title = l.Product.Title
		}
		out = append(out, LineSnapshot{
			ProductID: l.ProductID,
			Title:     title,
			Price:     l.PriceAtAdd,
			Quantity:  l.Quantity,
		})
	}
	return out
}

// Place records an order for userID and decrements stock. The steps are not
// transactional: once the order row exists a later failure is returned as
// ErrOrderIncomplete together with the partially written order.
func (s *Service) Place(ctx context.Context, userID string, in PlaceInput) (*domain.Order, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		productID := it.ProductID
		items = append(items, domain.OrderItem{
			ProductID:     &productID,
			TitleSnapshot: it.Title,
			PriceSnapshot: it.Price,
			Quantity:      it.Quantity,
		})
	}
	subtotal := domain.Subtotal(items)
	total := subtotal.Add(domain.DeliveryFee(in.DeliveryType, subtotal))

	uid := userID
	created, err := s.repo.Create(ctx, domain.Order{
		UserID:       &uid,
		Status:       domain.OrderStatusNew,
		Total:        total,
		Currency:     domain.DefaultCurrency,
		DeliveryType: in.DeliveryType,
		City:         in.City,
		Address:      in.Address,
		Name:         in.Name,
		Phone:        in.Phone,
		Comment:      in.Comment,
	})
	if err != nil {
		s.metrics.OrderFailed("create")
		return nil, fmt.Errorf("create order: %w", err)
	}
	logger := s.logger.WithFields(logrus.Fields{"order_id": created.ID, "user_id": userID})

	if err := s.repo.AddItems(ctx, created.ID, items); err != nil {
		return created, s.incomplete(logger, "items", created.ID, err)
	}
	created.Items = items

	if err := s.inventory.Adjust(ctx, adjustments(items), false); err != nil {
		return created, s.incomplete(logger, "stock", created.ID, err)
	}
	if err := s.carts.Clear(ctx, userID); err != nil {
		return created, s.incomplete(logger, "cart", created.ID, err)
	}

	s.metrics.OrderPlaced()
	logger.WithField("total", total.String()).Info("order placed")
	s.publish(ctx, kafka.OrderEvent{
		Type:    kafka.EventOrderCreated,
		OrderID: created.ID,
		UserID:  userID,
		Status:  string(created.Status),
		Total:   created.Total,
	})
	return created, nil
}

func (s *Service) incomplete(logger *logrus.Entry, step, orderID string, err error) error {
	s.metrics.OrderFailed(step)
	logger.WithError(err).WithField("step", step).Error("order left incomplete")
	return fmt.Errorf("%w: order %s: %s: %w", domain.ErrOrderIncomplete, orderID, step, err)
}

// ListForUser returns the user's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns an order with its items. Only the buyer and admins may see it;
// others get ErrNotFound.
func (s *Service) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin {
		return o, nil
	}
	if o.UserID == nil || *o.UserID != actor.UserID || actor.UserID == "" {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// ListAll returns every order, optionally filtered by status. Admin only.
func (s *Service) ListAll(ctx context.Context, actor domain.Identity, status domain.OrderStatus) ([]domain.Order, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}
	if status != "" && !status.Valid() {
		return nil, &domain.ValidationError{Fields: map[string]string{"status": "unknown status"}}
	}
	return s.repo.ListAll(ctx, status)
}

// UpdateStatus moves an order to status. Cancelling returns the order's
// units to stock. A failed restock leaves the order cancelled and is returned
// as an error alongside the updated order.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Identity, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}
	if !status.Valid() {
		return nil, &domain.ValidationError{Fields: map[string]string{"status": "unknown status"}}
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := current.Status
	if prev.IsTerminal() {
		return nil, fmt.Errorf("%w: order is already %s", domain.ErrInvalidTransition, prev)
	}
	if !domain.CanTransition(prev, status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, prev, status)
	}
	updated, err := s.repo.UpdateStatus(ctx, id, prev, status)
	if err != nil {
		return nil, err
	}
	s.metrics.StatusChanged(string(status))
	logger := s.logger.WithFields(logrus.Fields{"order_id": id, "from": prev, "to": status})
	logger.Info("order status changed")

	var restockErr error
	if status == domain.OrderStatusCancelled {
		restockErr = s.restock(ctx, id)
		if restockErr != nil {
			logger.WithError(restockErr).Error("restock after cancel failed")
		}
	}

	ev := kafka.OrderEvent{
		Type:       kafka.EventOrderStatusChanged,
		OrderID:    id,
		Status:     string(status),
		PrevStatus: string(prev),
		Total:      updated.Total,
	}
	if updated.UserID != nil {
		ev.UserID = *updated.UserID
	}
	s.publish(ctx, ev)
	return updated, restockErr
}

func (s *Service) restock(ctx context.Context, orderID string) error {
	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	adj := adjustments(items)
	if len(adj) == 0 {
		return nil
	}
	if err := s.inventory.Adjust(ctx, adj, true); err != nil {
		return fmt.Errorf("restock: %w", err)
	}
	return nil
}

// publish is best effort; the order is already committed.
func (s *Service) publish(ctx context.Context, ev kafka.OrderEvent) {
	ev.OccurredAt = s.now().UTC()
	err := s.events.PublishOrderEvent(ctx, ev)
	s.metrics.EventPublished(ev.Type, err)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WithError(err).WithFields(logrus.Fields{"order_id": ev.OrderID, "event": ev.Type}).Warn("order event not published")
	}
}

// adjustments lists stock changes for items, skipping lines whose product
// was deleted.
func adjustments(items []domain.OrderItem) []domain.StockAdjustment {
	out := make([]domain.StockAdjustment, 0, len(items))
	for _, it := range items {
		if it.ProductID == nil || *it.ProductID == "" {
			continue
		}
		out = append(out, domain.StockAdjustment{ProductID: *it.ProductID, Quantity: it.Quantity})
	}
	return out
}
