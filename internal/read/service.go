// Package read implements the catalog's read-side operations (spec
// §4.5/§6): readObject, readBatch and search resolve selectors against
// the store and materialize tags; platformInfo, listTenants,
// listResources and resourceInfo answer from configuration rather than
// the store. Every operation is metrics-wrapped the way the teacher's
// PostgresHistoryRepository wraps its queries
// (internal/infrastructure/repository/postgres_history.go), and search is
// additionally rate-limited per tenant (internal/api/middleware/rate_limit.go).
package read

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tracmeta/catalog/internal/catalog"
	"github.com/tracmeta/catalog/internal/catalogapi"
	"github.com/tracmeta/catalog/internal/errors"
)

// ConfigProvider supplies the tenant/resource/platform data platformInfo,
// listTenants, listResources and resourceInfo read from (spec §4.5). It
// is an interface, not a concrete config type, so this package does not
// have to depend on internal/config; internal/config satisfies it once
// built.
type ConfigProvider interface {
	Platform() catalogapi.PlatformInfo
	Tenants() []catalogapi.TenantInfo
	Resources() []catalogapi.ResourceInfo
	Resource(name string) (catalogapi.ResourceInfo, bool)
}

// Metrics holds the Prometheus collectors every Service method reports
// to, grounded on the teacher's HistoryMetrics
// (internal/infrastructure/repository/postgres_history.go).
type Metrics struct {
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
	QueryResults  *prometheus.HistogramVec
}

// NewMetrics registers a fresh set of collectors against the default
// Prometheus registry. Construct one per process, not per Service, when
// more than one Service shares a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_read_query_duration_seconds",
				Help:    "Duration of catalog read/search operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation", "status"},
		),
		QueryErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_read_query_errors_total",
				Help: "Total number of catalog read/search operation errors",
			},
			[]string{"operation", "kind"},
		),
		QueryResults: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_read_query_results_total",
				Help:    "Number of tags returned by a readBatch or search call",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"operation"},
		),
	}
}

// Service is the read/search entry point over a catalog store (spec §4.5).
type Service struct {
	store   *catalog.Store
	config  ConfigProvider
	limiter *TenantLimiter
	metrics *Metrics
	logger  *slog.Logger
}

// defaultMetrics is shared by every Service built with nil metrics; it is
// registered once, on first use.
var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

// NewService wires a Service. metrics defaults to one process-wide
// Metrics and logger to slog.Default() when nil; limiter may be nil to
// disable search rate limiting entirely.
func NewService(store *catalog.Store, config ConfigProvider, limiter *TenantLimiter, metrics *Metrics, logger *slog.Logger) *Service {
	if metrics == nil {
		defaultMetricsOnce.Do(func() { defaultMetrics = NewMetrics() })
		metrics = defaultMetrics
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, config: config, limiter: limiter, metrics: metrics, logger: logger}
}

func (svc *Service) observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		kind := "unknown"
		if ce, ok := errors.Of(err); ok {
			kind = string(ce.Kind)
		}
		svc.metrics.QueryErrors.WithLabelValues(operation, kind).Inc()
	}
	svc.metrics.QueryDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	svc.logger.Debug("read operation completed", "operation", operation, "status", status,
		"duration_ms", time.Since(start).Seconds()*1000)
}

// ReadObject resolves one selector to its tag (spec §4.5 readObject).
func (svc *Service) ReadObject(ctx context.Context, req catalogapi.MetadataReadRequest) (*catalog.Tag, error) {
	start := time.Now()
	tag, err := svc.store.ResolveTag(ctx, req.Tenant, req.Selector)
	svc.observe("read_object", start, err)
	return tag, err
}

// ReadBatch resolves every selector in req, preserving input order. The
// whole call fails as soon as any one selector fails to resolve (spec
// §4.5: "readBatch preserves input order" and fails atomically on the
// first unresolvable selector, rather than returning partial results).
func (svc *Service) ReadBatch(ctx context.Context, req catalogapi.MetadataBatchRequest) ([]*catalog.Tag, error) {
	start := time.Now()
	out := make([]*catalog.Tag, len(req.Selectors))
	for i, sel := range req.Selectors {
		tag, err := svc.store.ResolveTag(ctx, req.Tenant, sel)
		if err != nil {
			svc.observe("read_batch", start, err)
			return nil, err
		}
		out[i] = tag
	}
	svc.observe("read_batch", start, nil)
	svc.metrics.QueryResults.WithLabelValues("read_batch").Observe(float64(len(out)))
	return out, nil
}

// Search evaluates a search request, gated by the per-tenant rate limiter
// when one is configured (spec §4.5/§9: search is the one read operation
// whose cost scales with catalog size rather than a single lookup).
func (svc *Service) Search(ctx context.Context, req catalogapi.MetadataSearchRequest) ([]*catalog.Tag, error) {
	start := time.Now()
	if svc.limiter != nil && !svc.limiter.Allow(req.Tenant) {
		err := errors.Newf(errors.KindInputValidation, "search rate limit exceeded for tenant %s", req.Tenant)
		svc.observe("search", start, err)
		return nil, err
	}
	if !req.Parameters.ObjectType.Valid() {
		err := errors.Newf(errors.KindInputValidation, "%q is not a recognized object type", req.Parameters.ObjectType)
		svc.observe("search", start, err)
		return nil, err
	}

	tags, err := svc.store.Search(ctx, req.Tenant, req.Parameters)
	svc.observe("search", start, err)
	if err != nil {
		return nil, err
	}
	svc.metrics.QueryResults.WithLabelValues("search").Observe(float64(len(tags)))
	return tags, nil
}

// PlatformInfo answers the platformInfo method (spec §4.5/§6).
func (svc *Service) PlatformInfo(context.Context) (catalogapi.PlatformInfo, error) {
	if svc.config == nil {
		return catalogapi.PlatformInfo{}, errors.New(errors.KindInternal, "no configuration provider wired")
	}
	return svc.config.Platform(), nil
}

// ListTenants answers the listTenants method.
func (svc *Service) ListTenants(context.Context) ([]catalogapi.TenantInfo, error) {
	if svc.config == nil {
		return nil, errors.New(errors.KindInternal, "no configuration provider wired")
	}
	return svc.config.Tenants(), nil
}

// ListResources answers the listResources method.
func (svc *Service) ListResources(context.Context) ([]catalogapi.ResourceInfo, error) {
	if svc.config == nil {
		return nil, errors.New(errors.KindInternal, "no configuration provider wired")
	}
	return svc.config.Resources(), nil
}

// ResourceInfo answers resourceInfo for one named resource. Only the
// resource's public properties are ever returned (spec §4.5: secrets are
// stripped before this layer sees them, since ConfigProvider itself never
// exposes them).
func (svc *Service) ResourceInfo(_ context.Context, name string) (catalogapi.ResourceInfo, error) {
	if svc.config == nil {
		return catalogapi.ResourceInfo{}, errors.New(errors.KindInternal, "no configuration provider wired")
	}
	info, ok := svc.config.Resource(name)
	if !ok {
		return catalogapi.ResourceInfo{}, errors.Newf(errors.KindNotFound, "no resource named %q", name)
	}
	return info, nil
}
