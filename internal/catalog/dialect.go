package catalog

import (
	"context"
	"time"
)

// Row mirrors the subset of pgx.Row/ *sql.Row the store needs, so the
// same Store code runs over the pgx pool and the database/sql-backed
// sqlite dialects.
type Row interface {
	Scan(dest ...interface{}) error
}

// Tx is a dialect-neutral transaction handle.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...interface{}) error
	QueryRow(ctx context.Context, sql string, args ...interface{}) Row
	Query(ctx context.Context, sql string, args ...interface{}) (Rows, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Rows is a dialect-neutral result cursor.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close()
}

// Dialect abstracts the SQL differences between the catalog's supported
// backends (spec §6 names postgres as the reference backend; sqlite
// variants serve local development and the CLI's self-contained mode).
// It is grounded on the shape of internal/database/postgres.
// DatabaseConnection — Connect/Disconnect/Health/Exec/Query/Begin — with
// the pgx-specific types replaced by the narrower Tx/Row/Rows above so
// the same interface is satisfiable by database/sql drivers too.
type Dialect interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Health(ctx context.Context) error

	Begin(ctx context.Context) (Tx, error)
	Exec(ctx context.Context, sql string, args ...interface{}) error
	QueryRow(ctx context.Context, sql string, args ...interface{}) Row
	Query(ctx context.Context, sql string, args ...interface{}) (Rows, error)

	// IsDuplicateKey reports whether err came back from a unique
	// constraint violation, so the store can map it to
	// errors.KindDuplicate or errors.KindSuperseded without parsing
	// driver-specific error codes at the call site.
	IsDuplicateKey(err error) bool

	// Placeholder renders the positional parameter marker for argument
	// index i (1-based): "$1" for postgres, "?" for sqlite.
	Placeholder(i int) string

	// Now returns the current time truncated to the precision the
	// dialect's timestamp column actually stores, so timestamp-ordering
	// invariants hold after a round trip through the database.
	Now() time.Time
}
