package main

import (
	"context"
	"flag"

	"github.com/xRWDev/ReTech/internal/config"
	"github.com/xRWDev/ReTech/internal/db"
	"github.com/xRWDev/ReTech/internal/logging"
	"github.com/xRWDev/ReTech/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration instead of applying all")
	status := flag.Bool("status", false, "print the applied schema version and exit")
	flag.Parse()

	cfg := config.FromEnv()
	logger := logging.Component(logging.New(cfg.LogLevel), "migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.WithError(err).Fatal("connect db")
	}
	defer pool.Close()

	m := migrate.New(pool, logger)
	switch {
	case *status:
		version, dirty, err := m.Version(ctx)
		if err != nil {
			logger.WithError(err).Fatal("read schema version")
		}
		logger.WithField("version", version).WithField("dirty", dirty).Info("schema version")
	case *down:
		if err := m.Down(ctx); err != nil {
			logger.WithError(err).Fatal("roll back migration")
		}
		logger.Info("migration rolled back")
	default:
		if err := m.Up(ctx); err != nil {
			logger.WithError(err).Fatal("apply migrations")
		}
		logger.Info("migrations applied")
	}
}
