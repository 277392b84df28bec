package store

import (
	"context"
	"fmt"

	"github.com/voyagen/livecatalog/internal/cache"
	"github.com/voyagen/livecatalog/internal/models"
)

var redisCatalogKey = cache.Key("live", "configs")

func redisChannelsKey(sourceKey string) string {
	return cache.Key("live", "channels", sourceKey)
}

// RedisStore persists the catalog and channel cache as JSON values in Redis.
// Keys are written without a TTL.
type RedisStore struct {
	r *cache.Redis
}

// NewRedisStore returns a Store backed by r.
func NewRedisStore(r *cache.Redis) *RedisStore {
	return &RedisStore{r: r}
}

func (s *RedisStore) GetSourceCatalog(ctx context.Context) ([]models.Source, error) {
	v, _, err := cache.Get[[]models.Source](ctx, s.r, redisCatalogKey)
	if err != nil {
		return nil, fmt.Errorf("GetSourceCatalog: %w", err)
	}
	return v, nil
}

func (s *RedisStore) SetSourceCatalog(ctx context.Context, sources []models.Source) error {
	if err := cache.Set(ctx, s.r, redisCatalogKey, sources, 0); err != nil {
		return fmt.Errorf("SetSourceCatalog: %w", err)
	}
	return nil
}

func (s *RedisStore) GetCachedChannels(ctx context.Context, sourceKey string) (*models.ChannelCache, error) {
	v, found, err := cache.Get[models.ChannelCache](ctx, s.r, redisChannelsKey(sourceKey))
	if err != nil {
		return nil, fmt.Errorf("GetCachedChannels %s: %w", sourceKey, err)
	}
	if !found {
		return nil, nil
	}
	return &v, nil
}

func (s *RedisStore) SetCachedChannels(ctx context.Context, sourceKey string, entry models.ChannelCache) error {
	if err := cache.Set(ctx, s.r, redisChannelsKey(sourceKey), entry, 0); err != nil {
		return fmt.Errorf("SetCachedChannels %s: %w", sourceKey, err)
	}
	return nil
}

func (s *RedisStore) DeleteCachedChannels(ctx context.Context, sourceKey string) error {
	if err := cache.Del(ctx, s.r, redisChannelsKey(sourceKey)); err != nil {
		return fmt.Errorf("DeleteCachedChannels %s: %w", sourceKey, err)
	}
	return nil
}
