package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/voyagen/livecatalog/internal/catalog"
	"github.com/voyagen/livecatalog/internal/fetcher"
	"github.com/voyagen/livecatalog/internal/metrics"
	"github.com/voyagen/livecatalog/internal/models"
	"github.com/voyagen/livecatalog/internal/store"
)

// Cache lifetimes. The read path and the admin refresh path deliberately use
// different values.
const (
	ReadTTL  = 30 * time.Minute
	AdminTTL = 60 * time.Minute
)

// Fetcher retrieves and parses a playlist.
type Fetcher interface {
	Fetch(ctx context.Context, url string, userAgent string) ([]models.Channel, error)
}

// ChannelsResult is what ServeChannels returns for one source.
type ChannelsResult struct {
	Source    models.Source
	Channels  []models.Channel
	FromCache bool
	FetchedAt time.Time
}

// RefreshResult is the per-source outcome of RefreshAll.
type RefreshResult struct {
	Key      string `json:"key"`
	Success  bool   `json:"success"`
	Channels int    `json:"channels"`
	Error    string `json:"error,omitempty"`
}

// Live serves cached channel lists and refreshes them from upstream.
// Concurrent fetches of the same source on the same path share one upstream
// request.
type Live struct {
	store   store.Store
	fetcher Fetcher
	now     func() time.Time
	group   singleflight.Group
}

// NewLive returns a Live service over s, fetching with f.
func NewLive(s store.Store, f Fetcher) *Live {
	return &Live{store: s, fetcher: f, now: time.Now}
}

// ServeChannels returns the channels of an enabled source, from cache when
// fresh. On a miss the playlist is fetched, cached for ReadTTL, and the
// source's channel count is updated. A failed fetch writes nothing.
func (l *Live) ServeChannels(ctx context.Context, key string) (*ChannelsResult, error) {
	sources, err := l.store.GetSourceCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	i := indexOf(sources, key)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", catalog.ErrNotFound, key)
	}
	src := sources[i]
	if src.Disabled {
		return nil, fmt.Errorf("%w: %q", catalog.ErrDisabledSource, key)
	}

	cached, err := l.store.GetCachedChannels(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	if cached.Fresh(l.now()) {
		metrics.ChannelCacheLookups.WithLabelValues("read", "hit").Inc()
		return &ChannelsResult{Source: src, Channels: cached.Channels, FromCache: true, FetchedAt: cached.FetchedAt}, nil
	}
	metrics.ChannelCacheLookups.WithLabelValues("read", "miss").Inc()

	entry, err := l.fetchAndCache(ctx, "read", src, ReadTTL)
	if err != nil {
		return nil, err
	}

	sources[i].ChannelCount = len(entry.Channels)
	if err := l.store.SetSourceCatalog(ctx, sources); err != nil {
		return nil, fmt.Errorf("save catalog: %w", err)
	}
	return &ChannelsResult{Source: sources[i], Channels: entry.Channels, FetchedAt: entry.FetchedAt}, nil
}

// Refresh updates one source's channel count for the admin surface. A fresh
// cache entry is reused; otherwise the playlist is fetched and cached for
// AdminTTL. Disabled sources are refreshed too.
func (l *Live) Refresh(ctx context.Context, key string) (models.Source, error) {
	sources, err := l.store.GetSourceCatalog(ctx)
	if err != nil {
		return models.Source{}, fmt.Errorf("load catalog: %w", err)
	}
	i := indexOf(sources, key)
	if i < 0 {
		return models.Source{}, fmt.Errorf("%w: %q", catalog.ErrNotFound, key)
	}

	n, err := l.CountChannels(ctx, sources[i], false)
	if err != nil {
		metrics.SourceRefreshes.WithLabelValues("error").Inc()
		return models.Source{}, err
	}
	metrics.SourceRefreshes.WithLabelValues("ok").Inc()

	sources[i].ChannelCount = n
	if err := l.store.SetSourceCatalog(ctx, sources); err != nil {
		return models.Source{}, fmt.Errorf("save catalog: %w", err)
	}
	return sources[i], nil
}

// RefreshAll refreshes every source in catalog order, one at a time. A
// failing source is recorded in its result and does not stop the others.
// The catalog is saved once with the counts that succeeded.
func (l *Live) RefreshAll(ctx context.Context) ([]RefreshResult, error) {
	sources, err := l.store.GetSourceCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	results := make([]RefreshResult, 0, len(sources))
	for i := range sources {
		n, err := l.CountChannels(ctx, sources[i], false)
		if err != nil {
			metrics.SourceRefreshes.WithLabelValues("error").Inc()
			log.Printf("refresh[%s]: %v", sources[i].Key, err)
			results = append(results, RefreshResult{Key: sources[i].Key, Error: err.Error()})
			continue
		}
		metrics.SourceRefreshes.WithLabelValues("ok").Inc()
		sources[i].ChannelCount = n
		results = append(results, RefreshResult{Key: sources[i].Key, Success: true, Channels: n})
	}

	if len(sources) > 0 {
		if err := l.store.SetSourceCatalog(ctx, sources); err != nil {
			return results, fmt.Errorf("save catalog: %w", err)
		}
	}
	return results, nil
}

// CountChannels returns the number of channels in src's playlist, using a
// fresh cache entry unless force is set. Fetched playlists are cached for
// AdminTTL. It does not touch the catalog.
func (l *Live) CountChannels(ctx context.Context, src models.Source, force bool) (int, error) {
	if !fetcher.IsValidPlaylistURL(src.URL) {
		return 0, fmt.Errorf("%w: invalid playlist url for %q", catalog.ErrValidation, src.Key)
	}
	if !force {
		cached, err := l.store.GetCachedChannels(ctx, src.Key)
		if err != nil {
			return 0, fmt.Errorf("load channels: %w", err)
		}
		if cached.Fresh(l.now()) {
			metrics.ChannelCacheLookups.WithLabelValues("admin", "hit").Inc()
			return len(cached.Channels), nil
		}
		metrics.ChannelCacheLookups.WithLabelValues("admin", "miss").Inc()
	}

	entry, err := l.fetchAndCache(ctx, "admin", src, AdminTTL)
	if err != nil {
		return 0, err
	}
	return len(entry.Channels), nil
}

// fetchAndCache fetches src and writes the result to the channel cache.
// Callers on the same path and source share one in-flight call, which runs
// detached from any single caller's cancellation; the fetcher's own timeout
// bounds it.
func (l *Live) fetchAndCache(ctx context.Context, path string, src models.Source, ttl time.Duration) (models.ChannelCache, error) {
	v, err, _ := l.group.Do(path+":"+src.Key, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		channels, err := l.fetcher.Fetch(fctx, src.URL, src.UserAgent)
		if err != nil {
			return nil, err
		}
		now := l.now()
		entry := models.ChannelCache{
			SourceKey: src.Key,
			Channels:  channels,
			FetchedAt: now,
			ExpiresAt: now.Add(ttl),
		}
		if err := l.store.SetCachedChannels(fctx, src.Key, entry); err != nil {
			return nil, fmt.Errorf("save channels: %w", err)
		}
		return entry, nil
	})
	if err != nil {
		return models.ChannelCache{}, err
	}
	entry := v.(models.ChannelCache)
	entry.Channels = append([]models.Channel(nil), entry.Channels...)
	return entry, nil
}

func indexOf(sources []models.Source, key string) int {
	for i := range sources {
		if sources[i].Key == key {
			return i
		}
	}
	return -1
}
