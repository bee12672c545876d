// Package sqlite adapts the catalog's Dialect interface to SQLite over
// database/sql, for the CLI's self-contained single-process mode (spec
// §6) where standing up a postgres instance isn't worth it. Two drivers
// are wired in go.mod: modernc.org/sqlite (pure Go, used by default so
// the catalog binary stays cgo-free) and mattn/go-sqlite3 (cgo, selected
// with DriverCGO for deployments that already require cgo and want
// SQLite's reference C implementation).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/tracmeta/catalog/internal/catalog"
)

// Driver selects which registered database/sql driver backs a Dialect.
type Driver string

const (
	DriverPure Driver = "sqlite"        // modernc.org/sqlite, pure Go
	DriverCGO  Driver = "sqlite3"       // mattn/go-sqlite3, cgo
)

// Dialect implements catalog.Dialect over database/sql + a sqlite driver.
type Dialect struct {
	db *sql.DB
}

// Open opens path (or ":memory:") with the given driver.
func Open(driver Driver, path string) (*Dialect, error) {
	db, err := sql.Open(string(driver), path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite allows only one writer at a time; cap the pool so
	// concurrent writers serialize through database/sql instead of
	// failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &Dialect{db: db}, nil
}

// DB exposes the underlying *sql.DB for callers that need to run
// migrations (internal/catalog/migrations operates on database/sql
// directly, the same as the postgres dialect's pgxpool-backed stdlib
// handle would for that backend).
func (d *Dialect) DB() *sql.DB {
	return d.db
}

func (d *Dialect) Connect(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Dialect) Disconnect(ctx context.Context) error {
	return d.db.Close()
}

func (d *Dialect) Health(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Dialect) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := d.db.ExecContext(ctx, query, args...)
	return err
}

func (d *Dialect) QueryRow(ctx context.Context, query string, args ...interface{}) catalog.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

func (d *Dialect) Query(ctx context.Context, query string, args ...interface{}) (catalog.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (d *Dialect) Begin(ctx context.Context) (catalog.Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sqlTx{tx}, nil
}

func (d *Dialect) IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE")
}

func (d *Dialect) Placeholder(i int) string { return "?" }

func (d *Dialect) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type sqlRows struct{ *sql.Rows }

func (r sqlRows) Close() { r.Rows.Close() }

type sqlTx struct{ tx *sql.Tx }

func (t sqlTx) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := t.tx.ExecContext(ctx, query, args...)
	return err
}

func (t sqlTx) QueryRow(ctx context.Context, query string, args ...interface{}) catalog.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t sqlTx) Query(ctx context.Context, query string, args ...interface{}) (catalog.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (t sqlTx) Commit(ctx context.Context) error   { return t.tx.Commit() }
func (t sqlTx) Rollback(ctx context.Context) error { return t.tx.Rollback() }

var _ catalog.Dialect = (*Dialect)(nil)
