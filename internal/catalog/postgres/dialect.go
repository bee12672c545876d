package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tracmeta/catalog/internal/catalog"
)

var (
	ErrNotConnected     = errors.New("postgres: dialect is not connected")
	ErrAlreadyConnected = errors.New("postgres: dialect is already connected")
)

// Dialect implements catalog.Dialect over a pgxpool.Pool, grounded on
// internal/database/postgres.PostgresPool's lifecycle (Connect/Disconnect/
// Health, atomic closed flag) generalized from a single-purpose alert
// store to the catalog's dialect-neutral Exec/Query/Begin surface.
type Dialect struct {
	cfg      *Config
	pool     *pgxpool.Pool
	logger   *slog.Logger
	isClosed atomic.Bool
}

// New constructs a disconnected Dialect; call Connect before use.
func New(cfg *Config, logger *slog.Logger) *Dialect {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialect{cfg: cfg, logger: logger}
}

func (d *Dialect) Connect(ctx context.Context) error {
	if d.pool != nil {
		return ErrAlreadyConnected
	}
	if err := d.cfg.Validate(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(d.cfg.DSN())
	if err != nil {
		return fmt.Errorf("postgres: parse config: %w", err)
	}
	poolCfg.MaxConns = d.cfg.MaxConns
	poolCfg.MinConns = d.cfg.MinConns
	poolCfg.MaxConnLifetime = d.cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = d.cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = d.cfg.HealthCheckPeriod

	connectCtx, cancel := context.WithTimeout(ctx, d.cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		d.logger.Error("failed to connect to postgres", "host", d.cfg.Host, "error", err)
		return fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return fmt.Errorf("postgres: ping: %w", err)
	}

	d.pool = pool
	d.logger.Info("connected to postgres", "host", d.cfg.Host, "database", d.cfg.Database)
	return nil
}

func (d *Dialect) Disconnect(ctx context.Context) error {
	if d.isClosed.CompareAndSwap(false, true) && d.pool != nil {
		d.pool.Close()
	}
	return nil
}

func (d *Dialect) Health(ctx context.Context) error {
	if d.pool == nil {
		return ErrNotConnected
	}
	return d.pool.Ping(ctx)
}

func (d *Dialect) Exec(ctx context.Context, sql string, args ...interface{}) error {
	if d.pool == nil {
		return ErrNotConnected
	}
	_, err := d.pool.Exec(ctx, sql, args...)
	return err
}

func (d *Dialect) QueryRow(ctx context.Context, sql string, args ...interface{}) catalog.Row {
	return d.pool.QueryRow(ctx, sql, args...)
}

func (d *Dialect) Query(ctx context.Context, sql string, args ...interface{}) (catalog.Rows, error) {
	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgxRows{rows}, nil
}

func (d *Dialect) Begin(ctx context.Context) (catalog.Tx, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{tx}, nil
}

func (d *Dialect) IsDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func (d *Dialect) Placeholder(i int) string {
	return fmt.Sprintf("$%d", i)
}

func (d *Dialect) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type pgxRows struct {
	pgx.Rows
}

func (r pgxRows) Close() { r.Rows.Close() }

type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Exec(ctx context.Context, sql string, args ...interface{}) error {
	_, err := t.tx.Exec(ctx, sql, args...)
	return err
}

func (t pgxTx) QueryRow(ctx context.Context, sql string, args ...interface{}) catalog.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

func (t pgxTx) Query(ctx context.Context, sql string, args ...interface{}) (catalog.Rows, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgxRows{rows}, nil
}

func (t pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

var _ catalog.Dialect = (*Dialect)(nil)
