package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tracmeta/catalog/internal/catalog"
	"github.com/tracmeta/catalog/internal/catalog/migrations"
	"github.com/tracmeta/catalog/internal/catalog/postgres"
	"github.com/tracmeta/catalog/internal/catalog/sqlite"
	"github.com/tracmeta/catalog/internal/config"
)

// buildPostgresConfig maps the catalog config's database section onto
// the postgres dialect's own Config shape (internal/catalog/postgres.Config).
func buildPostgresConfig(cfg *config.Config) *postgres.Config {
	return &postgres.Config{
		Host:              cfg.Database.Host,
		Port:              cfg.Database.Port,
		Database:          cfg.Database.Database,
		User:              cfg.Database.Username,
		Password:          cfg.Database.Password,
		SSLMode:           cfg.Database.SSLMode,
		MaxConns:          int32(cfg.Database.MaxConnections),
		MinConns:          int32(cfg.Database.MinConnections),
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
		ConnectTimeout:    cfg.Database.ConnectTimeout,
		HealthCheckPeriod: postgres.DefaultConfig().HealthCheckPeriod,
	}
}

// openStoreDialect opens the live catalog.Dialect backing normal
// read/write traffic, selected by cfg.Storage.Backend the same way the teacher
// picks a deployment profile (spec §6, SPEC_FULL.md §4.3).
func openStoreDialect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (catalog.Dialect, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendSQLite:
		d, err := sqlite.Open(sqlite.DriverPure, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite dialect: %w", err)
		}
		return d, nil
	case config.StorageBackendPostgres:
		d := postgres.New(buildPostgresConfig(cfg), logger)
		if err := d.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect postgres dialect: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// openMigrationDB opens the *sql.DB goose needs, plus the matching
// migrations.Dialect name, for whichever backend cfg selects. sqlite's
// own catalog.Dialect already wraps a *sql.DB (Dialect.DB()); postgres
// needs a short-lived stdlib connection alongside the pgxpool-backed one
// openStoreDialect opens for normal traffic (postgres.OpenMigrationDB).
func openMigrationDB(cfg *config.Config) (*sql.DB, migrations.Dialect, func(), error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendSQLite:
		d, err := sqlite.Open(sqlite.DriverPure, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, "", nil, fmt.Errorf("open sqlite dialect: %w", err)
		}
		return d.DB(), migrations.SQLite, func() { d.DB().Close() }, nil
	case config.StorageBackendPostgres:
		db, err := postgres.OpenMigrationDB(buildPostgresConfig(cfg))
		if err != nil {
			return nil, "", nil, fmt.Errorf("open postgres migration db: %w", err)
		}
		return db, migrations.Postgres, func() { db.Close() }, nil
	default:
		return nil, "", nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
