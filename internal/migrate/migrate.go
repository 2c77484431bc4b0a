// Package migrate applies the storefront schema embedded under sql/.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/logging"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Migrator runs the embedded migrations against one database.
type Migrator struct {
	pool   *pgxpool.Pool
	logger *logrus.Entry
}

func New(pool *pgxpool.Pool, logger *logrus.Entry) *Migrator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Migrator{pool: pool, logger: logger}
}

// Apply runs all embedded migrations up.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	return New(pool, nil).Up(ctx)
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(ctx, func(mg *migrate.Migrate) error { return mg.Up() })
}

// Down reverts the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(ctx, func(mg *migrate.Migrate) error { return mg.Steps(-1) })
}

// Version reports the applied schema version. Zero means nothing is applied.
func (m *Migrator) Version(ctx context.Context) (version uint, dirty bool, err error) {
	err = m.run(ctx, func(mg *migrate.Migrate) error {
		v, d, verr := mg.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		version, dirty = v, d
		return verr
	})
	return version, dirty, err
}

func (m *Migrator) run(ctx context.Context, step func(*migrate.Migrate) error) error {
	srcDriver, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return fmt.Errorf("init iofs: %w", err)
	}

	sqlDB, err := sql.Open("pgx", m.pool.Config().ConnString())
	if err != nil {
		return fmt.Errorf("open sql db: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sql db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("init db driver: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", srcDriver, "pgx", dbDriver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer mg.Close()
	mg.Log = migrateLogger{m.logger}

	if err := step(mg); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("migrate: %w (every version needs both .up.sql and .down.sql)", err)
		}
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// migrateLogger adapts logrus to migrate.Logger.
type migrateLogger struct {
	entry *logrus.Entry
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.entry.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l migrateLogger) Verbose() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}
