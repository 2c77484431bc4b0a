package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/xRWDev/ReTech/internal/config"
	"github.com/xRWDev/ReTech/internal/db"
	"github.com/xRWDev/ReTech/internal/httpserver"
	"github.com/xRWDev/ReTech/internal/localcart"
	"github.com/xRWDev/ReTech/internal/logging"
	"github.com/xRWDev/ReTech/internal/messaging/kafka"
	"github.com/xRWDev/ReTech/internal/metrics"
	cartrepo "github.com/xRWDev/ReTech/internal/repository/cart"
	categoryrepo "github.com/xRWDev/ReTech/internal/repository/category"
	customerrepo "github.com/xRWDev/ReTech/internal/repository/customer"
	"github.com/xRWDev/ReTech/internal/repository/inventory"
	orderrepo "github.com/xRWDev/ReTech/internal/repository/order"
	productrepo "github.com/xRWDev/ReTech/internal/repository/product"
	tokenrepo "github.com/xRWDev/ReTech/internal/repository/token"
	anonymoussvc "github.com/xRWDev/ReTech/internal/service/anonymous"
	cartsvc "github.com/xRWDev/ReTech/internal/service/cart"
	"github.com/xRWDev/ReTech/internal/service/catalog"
	categorysvc "github.com/xRWDev/ReTech/internal/service/category"
	customersvc "github.com/xRWDev/ReTech/internal/service/customer"
	"github.com/xRWDev/ReTech/internal/service/dashboard"
	ordersvc "github.com/xRWDev/ReTech/internal/service/order"
)

func main() {
	cfg := config.FromEnv()
	base := logging.New(cfg.LogLevel)
	logger := logging.Component(base, "api")

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.WithError(err).Fatal("connect to db")
	}
	defer dbpool.Close()

	// Guest carts survive restarts only with Redis; without it they live in memory.
	probes := []httpserver.Probe{{Name: "postgres", Check: dbpool.Ping}}
	var guestStorage localcart.Storage
	redisClient, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.WithError(err).Warn("redis unavailable, guest carts kept in memory")
		guestStorage = localcart.NewMemoryStorage()
	} else {
		defer redisClient.Close()
		guestStorage = localcart.NewRedisStorage(redisClient, cfg.GuestCartTTL)
		probes = append(probes, httpserver.Probe{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	var events kafka.Publisher = kafka.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		if err != nil {
			logger.WithError(err).Warn("kafka unavailable, order events disabled")
		} else {
			defer producer.Close()
			events = producer
		}
	}

	m := metrics.New()
	productRepo := productrepo.NewPostgres(dbpool, logging.Component(base, "product-repo"))
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	guestCarts := localcart.NewStore(guestStorage, logging.Component(base, "guest-cart"))
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool, logging.Component(base, "cart-repo")), productRepo, m, logging.Component(base, "cart"))
	orderRepo := orderrepo.NewPostgres(dbpool, logging.Component(base, "order-repo"))
	orderService := ordersvc.New(
		orderRepo,
		inventory.NewPostgres(dbpool),
		cartService,
		events,
		m,
		logging.Component(base, "order"),
	)

	srv, err := httpserver.New(cfg.HTTPAddr, logging.Component(base, "http"), httpserver.Deps{
		Customers:   customersvc.New(customerrepo.NewPostgres(dbpool, logging.Component(base, "customer-repo")), tokenRepo, logging.Component(base, "customer")),
		Guests:      anonymoussvc.New(tokenRepo, cfg.GuestCartTTL, logging.Component(base, "guest")),
		Catalog:     catalog.New(productRepo, logging.Component(base, "catalog")),
		Categories:  categorysvc.New(categoryrepo.NewPostgres(dbpool)),
		Carts:       cartService,
		GuestCarts:  guestCarts,
		Reconciler:  cartsvc.NewReconciler(cartService, guestCarts, m, logging.Component(base, "reconcile")),
		Recent:      localcart.NewRecentlyViewed(guestStorage),
		Orders:      orderService,
		Dashboard:   dashboard.New(orderRepo, productRepo),
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
		Probes:      probes,
	})
	if err != nil {
		logger.WithError(err).Fatal("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		logger.WithError(err).Error("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	} else {
		logger.Info("server stopped")
	}
}
