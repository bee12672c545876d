package read

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TenantLimiter applies per-tenant token-bucket rate limiting to search,
// the one read operation whose cost scales with the size of the catalog
// rather than with a single object lookup. Adapted from the teacher's
// per-client RateLimiter (internal/api/middleware/rate_limit.go): same
// map-plus-mutex shape and the same "full bucket means inactive" eviction
// rule in Cleanup, generalized from an HTTP client identity to a tenant
// code since this package has no transport layer of its own (spec §6).
type TenantLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// NewTenantLimiter builds a limiter admitting requestsPerMinute search
// calls per tenant, with burst capacity for short spikes.
func NewTenantLimiter(requestsPerMinute, burst int) *TenantLimiter {
	return &TenantLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
	}
}

func (l *TenantLimiter) limiterFor(tenant string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[tenant]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[tenant] = limiter
	}
	return limiter
}

// Allow reports whether tenant may make one more search call now,
// consuming a token if so.
func (l *TenantLimiter) Allow(tenant string) bool {
	return l.limiterFor(tenant).Allow()
}

// Cleanup evicts limiters for tenants that haven't searched recently
// (a full token bucket), so long-lived processes don't accumulate one
// entry per tenant ever seen. Intended to run on a periodic ticker, same
// as the teacher's Cleanup.
func (l *TenantLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for tenant, limiter := range l.limiters {
		if limiter.TokensAt(now) == float64(l.burst) {
			delete(l.limiters, tenant)
		}
	}
}
