package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/repository/pgtest"
)

func TestPostgres_CreateWithItemsAndTransition(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	userID := pgtest.Customer(t, pool, "buyer@example.com")
	productID := pgtest.Product(t, pool, "galaxy-s21", "9000", 4)
	repo := NewPostgres(pool, nil)

	created, err := repo.Create(ctx, domain.Order{
		UserID:       &userID,
		Status:       domain.OrderStatusNew,
		Total:        decimal.NewFromInt(18200),
		DeliveryType: domain.DeliveryCourier,
		City:         "Kyiv",
		Address:      "Khreshchatyk 1",
		Name:         "Olena",
		Phone:        "+380501234567",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != domain.OrderStatusNew || created.Currency != "UAH" {
		t.Fatalf("unexpected order %+v", created)
	}

	err = repo.AddItems(ctx, created.ID, []domain.OrderItem{
		{ProductID: &productID, TitleSnapshot: "Galaxy S21", PriceSnapshot: decimal.NewFromInt(9000), Quantity: 2},
	})
	if err != nil {
		t.Fatalf("AddItems: %v", err)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 || *got.Items[0].ProductID != productID {
		t.Fatalf("unexpected items %+v", got.Items)
	}

	if _, err := repo.UpdateStatus(ctx, created.ID, domain.OrderStatusNew, domain.OrderStatusPaid); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, created.ID, domain.OrderStatusNew, domain.OrderStatusCancelled); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected stale transition to fail, got %v", err)
	}

	mine, err := repo.ListByUser(ctx, userID)
	if err != nil || len(mine) != 1 || mine[0].Status != domain.OrderStatusPaid {
		t.Fatalf("ListByUser: %v %+v", err, mine)
	}
	paid, err := repo.ListAll(ctx, domain.OrderStatusPaid)
	if err != nil || len(paid) != 1 {
		t.Fatalf("ListAll: %v %+v", err, paid)
	}
}

func TestPostgres_DeletedProductLeavesNullItem(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	productID := pgtest.Product(t, pool, "airpods-pro", "5000", 1)
	repo := NewPostgres(pool, nil)

	created, err := repo.Create(ctx, domain.Order{
		Status: domain.OrderStatusNew, Total: decimal.NewFromInt(5000),
		DeliveryType: domain.DeliveryPickup, Name: "Guest", Phone: "1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.AddItems(ctx, created.ID, []domain.OrderItem{{ProductID: &productID, TitleSnapshot: "AirPods", PriceSnapshot: decimal.NewFromInt(5000), Quantity: 1}}); err != nil {
		t.Fatalf("AddItems: %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	items, err := repo.ListItems(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 || items[0].ProductID != nil {
		t.Fatalf("expected item with null product, got %+v", items)
	}
}

func TestPostgres_RevenueAndCountByDay(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	repo := NewPostgres(pool, nil)

	place := func(total int64) string {
		t.Helper()
		o, err := repo.Create(ctx, domain.Order{
			Status: domain.OrderStatusNew, Total: decimal.NewFromInt(total),
			DeliveryType: domain.DeliveryPickup, Name: "Guest", Phone: "1",
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return o.ID
	}
	place(1000)
	cancelled := place(700)
	old := place(300)
	if _, err := repo.UpdateStatus(ctx, cancelled, domain.OrderStatusNew, domain.OrderStatusCancelled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := pool.Exec(ctx, `UPDATE orders SET created_at = now() - interval '30 days' WHERE id = $1`, old); err != nil {
		t.Fatalf("backdate order: %v", err)
	}

	revenue, err := repo.Revenue(ctx)
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}
	if !revenue.Equal(decimal.NewFromInt(1300)) {
		t.Fatalf("expected revenue 1300, got %s", revenue)
	}

	now := time.Now().UTC()
	counts, err := repo.CountByDay(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("CountByDay: %v", err)
	}
	if len(counts) != 1 || counts[now.Format(DayLayout)] != 2 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
