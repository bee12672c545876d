package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RemoteCache is the subset of a Redis client the L2 tier needs; it is
// satisfied by internal/infrastructure/cache.Cache (the teacher's Redis
// wrapper), adapted here to cache catalog tags instead of templates.
type RemoteCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TagCache is a two-tier read cache over resolved tags: an in-process LRU
// (L1) backed by a shared Redis cache (L2), the same fallback chain as
// the teacher's TwoTierTemplateCache, generalized from template names to
// tenant-qualified tag keys.
type TagCache struct {
	l1     *lru.Cache[string, *Tag]
	l2     RemoteCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewTagCache builds a two-tier cache with an L1 of l1Size entries and an
// l2 TTL of ttl. l2 may be nil, in which case the cache runs L1-only
// (useful for the sqlite/CLI single-process deployment, spec §6).
func NewTagCache(l1Size int, l2 RemoteCache, ttl time.Duration, logger *slog.Logger) (*TagCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l1, err := lru.New[string, *Tag](l1Size)
	if err != nil {
		return nil, fmt.Errorf("catalog: create L1 tag cache: %w", err)
	}
	return &TagCache{l1: l1, l2: l2, ttl: ttl, logger: logger}, nil
}

func tagCacheKey(tenant, objectId string, objectVersion, tagVersion int32) string {
	return fmt.Sprintf("tag:%s:%s:%d:%d", tenant, objectId, objectVersion, tagVersion)
}

// Get returns a cached tag for the exact (object, tag) version pair, or
// nil if it isn't cached. Selectors that resolve to "latest" are never
// cached directly — only the exact version they resolve to, so a new tag
// landing can't serve a stale cached "latest" result.
func (c *TagCache) Get(ctx context.Context, tenant, objectId string, objectVersion, tagVersion int32) *Tag {
	key := tagCacheKey(tenant, objectId, objectVersion, tagVersion)
	if tag, ok := c.l1.Get(key); ok {
		return tag
	}
	if c.l2 == nil {
		return nil
	}
	var tag Tag
	if err := c.l2.Get(ctx, key, &tag); err != nil {
		return nil
	}
	c.l1.Add(key, &tag)
	return &tag
}

// Put stores a resolved tag in both tiers.
func (c *TagCache) Put(ctx context.Context, tenant string, tag *Tag) {
	key := tagCacheKey(tenant, tag.Header.ObjectId, tag.Header.ObjectVersion, tag.Header.TagVersion)
	c.l1.Add(key, tag)
	if c.l2 != nil {
		if err := c.l2.Set(ctx, key, tag, c.ttl); err != nil {
			c.logger.Warn("tag cache L2 set failed", "object_id", tag.Header.ObjectId, "error", err)
		}
	}
}

// InvalidateObject drops cached tags after a write to objectId. The L1
// tier has no prefix-scan, so this purges the whole L1, not just
// objectId's entries (objects are written far less often than read, so an
// occasional full L1 purge is cheap). L2 entries are not removed.
func (c *TagCache) InvalidateObject(tenant, objectId string) {
	c.l1.Purge()
}
