package main

import (
	"context"
	"flag"
	"os"

	"github.com/xRWDev/ReTech/internal/config"
	"github.com/xRWDev/ReTech/internal/db"
	"github.com/xRWDev/ReTech/internal/logging"
	categoryrepo "github.com/xRWDev/ReTech/internal/repository/category"
	customerrepo "github.com/xRWDev/ReTech/internal/repository/customer"
	productrepo "github.com/xRWDev/ReTech/internal/repository/product"
	tokenrepo "github.com/xRWDev/ReTech/internal/repository/token"
	"github.com/xRWDev/ReTech/internal/seed"
	categorysvc "github.com/xRWDev/ReTech/internal/service/category"
	customersvc "github.com/xRWDev/ReTech/internal/service/customer"
)

func main() {
	email := flag.String("admin-email", os.Getenv("SEED_ADMIN_EMAIL"), "admin account to create; empty skips it")
	password := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password for the admin account")
	flag.Parse()

	cfg := config.FromEnv()
	base := logging.New(cfg.LogLevel)
	logger := logging.Component(base, "seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.WithError(err).Fatal("connect db")
	}
	defer pool.Close()

	seeder := seed.New(
		categorysvc.New(categoryrepo.NewPostgres(pool)),
		productrepo.NewPostgres(pool, logger),
		customersvc.New(customerrepo.NewPostgres(pool, logger), tokenrepo.NewPostgres(pool), logger),
		logger,
	)
	if err := seeder.Apply(ctx, seed.Admin{Email: *email, Password: *password}); err != nil {
		logger.WithError(err).Fatal("seed apply")
	}

	logger.Info("seed applied")
}
