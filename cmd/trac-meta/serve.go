package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tracmeta/catalog/internal/catalog"
	"github.com/tracmeta/catalog/internal/catalog/migrations"
	"github.com/tracmeta/catalog/internal/config"
	infracache "github.com/tracmeta/catalog/internal/infrastructure/cache"
	"github.com/tracmeta/catalog/internal/metrics"
	"github.com/tracmeta/catalog/internal/read"
	"github.com/tracmeta/catalog/internal/write"
	pkglog "github.com/tracmeta/catalog/pkg/logger"
)

// newServeCommand wires the catalog's store, cache and read/write
// services and runs the ambient ops HTTP surface only (health,
// readiness, /metrics via gorilla/mux, per SPEC_FULL.md §6) — there is
// no wire-transport RPC layer in scope (spec §1), so nothing is mounted
// under a request path that would look like one. Grounded on
// cmd/server/main.go's connect-migrate-serve-shutdown shape, with the
// bare http.ServeMux swapped for gorilla/mux to match the rest of the
// pack (internal/api/router.go).
func newServeCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog process (migrate, then serve health/metrics)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func runServe(ctx context.Context, flags *rootFlags) error {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}
	logger := newProcessLogger(cfg)

	logger.Info("starting trac-meta", "profile", cfg.Profile, "backend", cfg.Storage.Backend)

	if err := runStartupMigrations(cfg, logger); err != nil {
		return err
	}

	dialect, err := openStoreDialect(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var remote catalog.RemoteCache
	if cfg.Redis.Addr != "" {
		redisCache, err := infracache.NewRedisCache(&infracache.CacheConfig{
			Addr:            cfg.Redis.Addr,
			Password:        cfg.Redis.Password,
			DB:              cfg.Redis.DB,
			PoolSize:        cfg.Redis.PoolSize,
			MinIdleConns:    cfg.Redis.MinIdleConns,
			DialTimeout:     cfg.Redis.DialTimeout,
			ReadTimeout:     cfg.Redis.ReadTimeout,
			WriteTimeout:    cfg.Redis.WriteTimeout,
			MaxRetries:      cfg.Redis.MaxRetries,
			MinRetryBackoff: cfg.Redis.MinRetryBackoff,
			MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		}, logger)
		if err != nil {
			return err
		}
		remote = redisCache
	}

	cache, err := catalog.NewTagCache(cfg.Cache.L1Size, remote, cfg.Cache.L2TTL, logger)
	if err != nil {
		return err
	}

	store := catalog.New(dialect, cache)

	var limiter *read.TenantLimiter
	if cfg.RateLimit.Enabled {
		limiter = read.NewTenantLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}

	readSvc := read.NewService(store, cfg, limiter, read.NewMetrics(), logger)
	writeSvc := write.NewService(store, metrics.NewWriteMetrics())
	_, _ = readSvc, writeSvc // held alive for the process lifetime; no transport mounts either (spec §1)

	router := mux.NewRouter()
	router.Use(pkglog.LoggingMiddleware(logger))
	router.HandleFunc("/healthz", healthHandler(logger)).Methods(http.MethodGet)
	router.HandleFunc("/readyz", readinessHandler(dialect)).Methods(http.MethodGet)
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
	}

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("ops HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("trac-meta exited")
	return nil
}

// runStartupMigrations applies pending migrations before serving, the
// same ordering cmd/server/main.go follows (connect, migrate, serve).
func runStartupMigrations(cfg *config.Config, logger *slog.Logger) error {
	db, dialect, closeDB, err := openMigrationDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	return migrations.Up(db, dialect, logger)
}

func healthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "healthy"}); err != nil {
			logger.Error("failed to encode health response", "error", err)
		}
	}
}

func readinessHandler(dialect catalog.Dialect) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := dialect.Health(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}
