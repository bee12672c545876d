// Package migrations runs the catalog's schema migrations with goose,
// grounded on internal/database.RunMigrations/RunMigrationsDown, adapted
// to run over a *sql.DB handed in by the caller (both the postgres and
// sqlite dialects expose one for this purpose) instead of pgx pool
// wrapping, and to dispatch goose's dialect from a parameter instead of
// being hardwired to "postgres".
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedded embed.FS

// Dialect names the goose dialect and the embedded subdirectory holding
// that dialect's migration files.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

func (d Dialect) dir() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return string(d)
	}
}

// Up applies every pending migration for dialect against db.
func Up(db *sql.DB, dialect Dialect, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("migrations: set dialect: %w", err)
	}
	logger.Info("running catalog migrations", "dialect", dialect)
	if err := goose.Up(db, dialect.dir()); err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	logger.Info("catalog migrations complete", "dialect", dialect)
	return nil
}

// DownTo rolls back every migration newer than version; version itself
// stays applied.
func DownTo(db *sql.DB, dialect Dialect, version int64, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("migrations: set dialect: %w", err)
	}
	if err := goose.DownTo(db, dialect.dir(), version); err != nil {
		return fmt.Errorf("migrations: down: %w", err)
	}
	return nil
}

// Status reports the applied/pending migration state.
func Status(db *sql.DB, dialect Dialect, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("migrations: set dialect: %w", err)
	}
	return goose.Status(db, dialect.dir())
}
