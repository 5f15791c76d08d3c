// Package storage selects and opens the audit job store.
// Backends live in subpackages: postgres (pgx), sqlite (modernc) and memory.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/JakeFAU/webaudit360/internal/audit"
	"github.com/JakeFAU/webaudit360/internal/config"
	"github.com/JakeFAU/webaudit360/internal/storage/memory"
	"github.com/JakeFAU/webaudit360/internal/storage/migrations"
	"github.com/JakeFAU/webaudit360/internal/storage/postgres"
	"github.com/JakeFAU/webaudit360/internal/storage/sqlite"
)

// Provider is a JobStore plus the lifecycle hooks the service needs.
type Provider interface {
	audit.JobStore
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	// Close releases connections held by the store.
	Close() error
}

// Options tweaks Open.
type Options struct {
	// Migrate applies the schema before returning, regardless of cfg.AutoMigrate.
	Migrate bool
}

// Open builds the Provider selected by cfg.Driver. Schema migrations run when
// cfg.AutoMigrate or opts.Migrate is set.
func Open(ctx context.Context, cfg config.DBConfig, opts Options, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	migrate := cfg.AutoMigrate || opts.Migrate

	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory job store. Jobs are lost on restart.")
		return memory.NewJobStore(), nil

	case config.DriverSQLite:
		logger.Info("Opening SQLite job store", zap.String("path", cfg.DSN))
		db, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if migrate {
			if _, err := migrations.Up(ctx, db, migrations.SQLite, logger); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		store, err := sqlite.NewJobStore(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil

	case config.DriverPostgres:
		logger.Info("Connecting to PostgreSQL...")
		pool, err := postgres.NewPool(ctx, postgres.JobStoreConfig{
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime(),
		})
		if err != nil {
			return nil, err
		}
		if migrate {
			// The handle borrows pool connections and keeps none idle; the pool stays open.
			db := stdlib.OpenDBFromPool(pool)
			if _, err := migrations.Up(ctx, db, migrations.Postgres, logger); err != nil {
				pool.Close()
				return nil, err
			}
		}
		store, err := postgres.NewJobStoreWithPool(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown db driver: %q", cfg.Driver)
	}
}
