package store

import (
	"context"

	"github.com/voyagen/livecatalog/internal/models"
)

// Store persists the live source catalog and the per-source channel cache.
//
// Implementations provide get/set semantics only. They do not serialise
// concurrent read-modify-write sequences on the catalog and they never expire
// cached channels: freshness is decided by the caller from ExpiresAt.
type Store interface {
	// GetSourceCatalog returns the persisted catalog (nil/empty when unset).
	GetSourceCatalog(ctx context.Context) ([]models.Source, error)
	// SetSourceCatalog replaces the persisted catalog.
	SetSourceCatalog(ctx context.Context, sources []models.Source) error

	// GetCachedChannels returns the cache entry for sourceKey, or nil when absent.
	GetCachedChannels(ctx context.Context, sourceKey string) (*models.ChannelCache, error)
	// SetCachedChannels overwrites the cache entry for sourceKey.
	SetCachedChannels(ctx context.Context, sourceKey string, entry models.ChannelCache) error
	// DeleteCachedChannels evicts the cache entry for sourceKey. Deleting an
	// absent entry is not an error.
	DeleteCachedChannels(ctx context.Context, sourceKey string) error
}
