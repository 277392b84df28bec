package store

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/voyagen/livecatalog/internal/models"
)

const (
	memCatalogKey     = "catalog"
	memChannelsPrefix = "channels:"
)

// Memory is an in-process Store. Values are copied on the way in and out so
// callers never share slices with the store.
type Memory struct {
	c *gocache.Cache
}

// NewMemory returns an empty in-memory store. Entries never expire.
func NewMemory() *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, 0)}
}

func (m *Memory) GetSourceCatalog(_ context.Context) ([]models.Source, error) {
	v, ok := m.c.Get(memCatalogKey)
	if !ok {
		return nil, nil
	}
	src := v.([]models.Source)
	return append([]models.Source(nil), src...), nil
}

func (m *Memory) SetSourceCatalog(_ context.Context, sources []models.Source) error {
	m.c.Set(memCatalogKey, append([]models.Source(nil), sources...), gocache.NoExpiration)
	return nil
}

func (m *Memory) GetCachedChannels(_ context.Context, sourceKey string) (*models.ChannelCache, error) {
	v, ok := m.c.Get(memChannelsPrefix + sourceKey)
	if !ok {
		return nil, nil
	}
	entry := v.(models.ChannelCache)
	entry.Channels = append([]models.Channel(nil), entry.Channels...)
	return &entry, nil
}

func (m *Memory) SetCachedChannels(_ context.Context, sourceKey string, entry models.ChannelCache) error {
	entry.Channels = append([]models.Channel(nil), entry.Channels...)
	m.c.Set(memChannelsPrefix+sourceKey, entry, gocache.NoExpiration)
	return nil
}

func (m *Memory) DeleteCachedChannels(_ context.Context, sourceKey string) error {
	m.c.Delete(memChannelsPrefix + sourceKey)
	return nil
}
