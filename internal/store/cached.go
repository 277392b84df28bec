package store

import (
	"context"
	"log"
	"time"

	"github.com/voyagen/livecatalog/internal/cache"
	"github.com/voyagen/livecatalog/internal/models"
)

// Read-through TTLs. These bound how long Redis may serve a copy of the
// authoritative rows; they are unrelated to channel freshness.
const (
	ttlCatalog  = 2 * time.Minute
	ttlChannels = 5 * time.Minute
)

var (
	cachedCatalogKey = cache.Key("rt", "catalog")
	cachedPattern    = cache.Key("rt", "*")
)

func cachedChannelsKey(sourceKey string) string {
	return cache.Key("rt", "channels", sourceKey)
}

// CachedStore wraps a Store with a Redis caching layer.
// Reads are served from Redis when possible; writes go to the inner store
// first and then invalidate the relevant keys.
type CachedStore struct {
	inner Store
	cache *cache.Redis
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

// --- cached read operations ---

func (c *CachedStore) GetSourceCatalog(ctx context.Context) ([]models.Source, error) {
	v, found, err := cache.Get[[]models.Source](ctx, c.cache, cachedCatalogKey)
	if err != nil {
		log.Printf("cache: %v", err)
	}
	if found {
		return v, nil
	}
	sources, err := c.inner.GetSourceCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		// An empty catalog is not cached so Catalog.List sees it and seeds.
		return sources, nil
	}
	if err := cache.Set(ctx, c.cache, cachedCatalogKey, sources, ttlCatalog); err != nil {
		log.Printf("cache: %v", err)
	}
	return sources, nil
}

func (c *CachedStore) GetCachedChannels(ctx context.Context, sourceKey string) (*models.ChannelCache, error) {
	key := cachedChannelsKey(sourceKey)
	v, found, err := cache.Get[models.ChannelCache](ctx, c.cache, key)
	if err != nil {
		log.Printf("cache: %v", err)
	}
	if found {
		return &v, nil
	}
	entry, err := c.inner.GetCachedChannels(ctx, sourceKey)
	if err != nil || entry == nil {
		return entry, err
	}
	if err := cache.Set(ctx, c.cache, key, entry, ttlChannels); err != nil {
		log.Printf("cache: %v", err)
	}
	return entry, nil
}

// --- write operations with cache invalidation ---

func (c *CachedStore) SetSourceCatalog(ctx context.Context, sources []models.Source) error {
	if err := c.inner.SetSourceCatalog(ctx, sources); err != nil {
		return err
	}
	c.invalidate(ctx, cachedCatalogKey)
	return nil
}

func (c *CachedStore) SetCachedChannels(ctx context.Context, sourceKey string, entry models.ChannelCache) error {
	if err := c.inner.SetCachedChannels(ctx, sourceKey, entry); err != nil {
		return err
	}
	c.invalidate(ctx, cachedChannelsKey(sourceKey))
	return nil
}

func (c *CachedStore) DeleteCachedChannels(ctx context.Context, sourceKey string) error {
	if err := c.inner.DeleteCachedChannels(ctx, sourceKey); err != nil {
		return err
	}
	c.invalidate(ctx, cachedChannelsKey(sourceKey))
	return nil
}

// Purge drops every read-through key, e.g. after migrations changed the
// underlying rows.
func (c *CachedStore) Purge(ctx context.Context) error {
	return cache.DelPattern(ctx, c.cache, cachedPattern)
}

// --- helpers ---

// invalidate deletes exact cache keys, logging any errors.
func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil {
		log.Printf("cache: del %v: %v", keys, err)
	}
}
