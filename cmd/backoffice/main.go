package main

import (
	"context"
	"fmt"
	"os"

	"github.com/xRWDev/ReTech/internal/backoffice"
	"github.com/xRWDev/ReTech/internal/config"
	"github.com/xRWDev/ReTech/internal/db"
	"github.com/xRWDev/ReTech/internal/logging"
	"github.com/xRWDev/ReTech/internal/messaging/kafka"
	"github.com/xRWDev/ReTech/internal/metrics"
	cartrepo "github.com/xRWDev/ReTech/internal/repository/cart"
	customerrepo "github.com/xRWDev/ReTech/internal/repository/customer"
	"github.com/xRWDev/ReTech/internal/repository/inventory"
	orderrepo "github.com/xRWDev/ReTech/internal/repository/order"
	productrepo "github.com/xRWDev/ReTech/internal/repository/product"
	tokenrepo "github.com/xRWDev/ReTech/internal/repository/token"
	cartsvc "github.com/xRWDev/ReTech/internal/service/cart"
	customersvc "github.com/xRWDev/ReTech/internal/service/customer"
	ordersvc "github.com/xRWDev/ReTech/internal/service/order"
)

func main() {
	cfg := config.FromEnv()
	base := logging.New(cfg.LogLevel)

	open := func(ctx context.Context) (*backoffice.Backend, func(), error) {
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
		release := []func(){pool.Close}

		var events kafka.Publisher = kafka.NoopPublisher{}
		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
			if err != nil {
				logging.Component(base, "backoffice").WithError(err).Warn("kafka unavailable, order events disabled")
			} else {
				events = producer
				release = append(release, func() { _ = producer.Close() })
			}
		}

		m := metrics.New()
		products := productrepo.NewPostgres(pool, logging.Component(base, "product-repo"))
		carts := cartsvc.New(cartrepo.NewPostgres(pool, nil), products, m, nil)
		b := &backoffice.Backend{
			Orders: ordersvc.New(
				orderrepo.NewPostgres(pool, nil),
				inventory.NewPostgres(pool),
				carts,
				events,
				m,
				logging.Component(base, "order"),
			),
			Accounts: customersvc.New(customerrepo.NewPostgres(pool, nil), tokenrepo.NewPostgres(pool), logging.Component(base, "customer")),
			Products: products,
		}
		return b, func() {
			for i := len(release) - 1; i >= 0; i-- {
				release[i]()
			}
		}, nil
	}

	if err := backoffice.NewRootCommand(open).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
