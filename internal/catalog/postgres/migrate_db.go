package postgres

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenMigrationDB opens a database/sql handle over cfg using pgx's stdlib
// adapter. internal/catalog/migrations runs goose migrations directly
// against database/sql (the same interface the sqlite dialect already
// exposes via Dialect.DB), so the pgxpool-backed Dialect used for normal
// catalog traffic isn't a fit here; this is a separate, short-lived
// connection used only for migrations (cmd/trac-meta's migrate
// subcommands and serve's startup migration step).
func OpenMigrationDB(cfg *Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, err
	}
	return db, nil
}
