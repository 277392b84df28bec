package catalog

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/voyagen/livecatalog/internal/fetcher"
	"github.com/voyagen/livecatalog/internal/metrics"
	"github.com/voyagen/livecatalog/internal/models"
	"github.com/voyagen/livecatalog/internal/store"
)

// ChannelCounter fetches a source's playlist and returns its channel count.
// force skips any fresh cache entry.
type ChannelCounter interface {
	CountChannels(ctx context.Context, src models.Source, force bool) (int, error)
}

// NewSource holds the fields accepted when adding a custom source.
type NewSource struct {
	Key       string
	Name      string
	URL       string
	UserAgent string
	EPGURL    string
}

// SourceUpdate holds editable fields of a custom source.
// Pointer fields: nil = don't change, non-nil = set. An empty Name is ignored.
type SourceUpdate struct {
	Name      *string
	URL       *string
	UserAgent *string
	EPGURL    *string
}

// Catalog manages the ordered set of live sources.
//
// Every mutation is a read-modify-write of the whole catalog through the
// store with no lock or version check, so two concurrent mutations can
// overwrite each other. A hardened deployment needs a compare-and-swap write
// in the store.
type Catalog struct {
	store   store.Store
	seed    SeedLoader
	counter ChannelCounter
}

// New returns a Catalog. seed and counter may be nil.
func New(s store.Store, seed SeedLoader, counter ChannelCounter) *Catalog {
	return &Catalog{store: s, seed: seed, counter: counter}
}

// List returns the persisted catalog. An empty catalog is seeded once from
// the static configuration; a failing seed yields an empty catalog.
func (c *Catalog) List(ctx context.Context) ([]models.Source, error) {
	sources, err := c.store.GetSourceCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(sources) > 0 || c.seed == nil {
		return sources, nil
	}

	defaults, err := c.seed.LoadSources()
	if err != nil {
		log.Printf("catalog: load default sources: %v", err)
		return []models.Source{}, nil
	}
	if len(defaults) == 0 {
		return []models.Source{}, nil
	}
	if err := c.save(ctx, defaults); err != nil {
		return nil, err
	}
	log.Printf("catalog: imported %d sources from configuration", len(defaults))
	return defaults, nil
}

// ListEnabled returns enabled sources sorted by Order.
func (c *Catalog) ListEnabled(ctx context.Context) ([]models.Source, error) {
	sources, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	enabled := make([]models.Source, 0, len(sources))
	for _, s := range sources {
		if !s.Disabled {
			enabled = append(enabled, s)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool { return enabled[i].Order < enabled[j].Order })
	return enabled, nil
}

// Get returns the source with key.
func (c *Catalog) Get(ctx context.Context, key string) (models.Source, error) {
	sources, err := c.List(ctx)
	if err != nil {
		return models.Source{}, err
	}
	i := indexOf(sources, key)
	if i < 0 {
		return models.Source{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return sources[i], nil
}

// Add appends a custom source. Its channel count is fetched immediately;
// a failed fetch leaves the count at zero and does not fail the add.
func (c *Catalog) Add(ctx context.Context, in NewSource) (models.Source, error) {
	if in.Key == "" || in.Name == "" || in.URL == "" {
		return models.Source{}, fmt.Errorf("%w: key, name and url are required", ErrValidation)
	}
	if !fetcher.IsValidPlaylistURL(in.URL) {
		return models.Source{}, fmt.Errorf("%w: invalid playlist url", ErrValidation)
	}

	sources, err := c.List(ctx)
	if err != nil {
		return models.Source{}, err
	}
	if indexOf(sources, in.Key) >= 0 {
		return models.Source{}, fmt.Errorf("%w: source %q already exists", ErrValidation, in.Key)
	}

	src := models.Source{
		Key:       in.Key,
		Name:      in.Name,
		URL:       in.URL,
		UserAgent: in.UserAgent,
		EPGURL:    in.EPGURL,
		From:      models.OriginCustom,
		Order:     len(sources),
	}
	if n, ok := c.count(ctx, src, false); ok {
		src.ChannelCount = n
	}

	if err := c.save(ctx, append(sources, src)); err != nil {
		return models.Source{}, err
	}
	return src, nil
}

// Edit updates a custom source. When the url changes the channel count is
// refetched; a failed fetch leaves the previous count in place and evicts the
// cached channels of the old url.
func (c *Catalog) Edit(ctx context.Context, key string, upd SourceUpdate) (models.Source, error) {
	sources, err := c.List(ctx)
	if err != nil {
		return models.Source{}, err
	}
	i := indexOf(sources, key)
	if i < 0 {
		return models.Source{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	src := sources[i]
	if src.Immutable() {
		return models.Source{}, fmt.Errorf("%w: %q", ErrImmutableOrigin, key)
	}
	if upd.URL != nil && !fetcher.IsValidPlaylistURL(*upd.URL) {
		return models.Source{}, fmt.Errorf("%w: invalid playlist url", ErrValidation)
	}

	urlChanged := upd.URL != nil && *upd.URL != src.URL
	if upd.Name != nil && *upd.Name != "" {
		src.Name = *upd.Name
	}
	if upd.URL != nil {
		src.URL = *upd.URL
	}
	if upd.UserAgent != nil {
		src.UserAgent = *upd.UserAgent
	}
	if upd.EPGURL != nil {
		src.EPGURL = *upd.EPGURL
	}
	if urlChanged {
		if n, ok := c.count(ctx, src, true); ok {
			src.ChannelCount = n
		} else if err := c.store.DeleteCachedChannels(ctx, key); err != nil {
			return models.Source{}, fmt.Errorf("evict channels: %w", err)
		}
	}

	sources[i] = src
	if err := c.save(ctx, sources); err != nil {
		return models.Source{}, err
	}
	return src, nil
}

// Delete removes a custom source and evicts its cached channels.
func (c *Catalog) Delete(ctx context.Context, key string) error {
	sources, err := c.List(ctx)
	if err != nil {
		return err
	}
	i := indexOf(sources, key)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if sources[i].Immutable() {
		return fmt.Errorf("%w: %q", ErrImmutableOrigin, key)
	}

	if err := c.store.DeleteCachedChannels(ctx, key); err != nil {
		return fmt.Errorf("evict channels: %w", err)
	}
	return c.save(ctx, append(sources[:i], sources[i+1:]...))
}

// Toggle flips the disabled flag. Config sources may be toggled.
func (c *Catalog) Toggle(ctx context.Context, key string) (models.Source, error) {
	sources, err := c.List(ctx)
	if err != nil {
		return models.Source{}, err
	}
	i := indexOf(sources, key)
	if i < 0 {
		return models.Source{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	sources[i].Disabled = !sources[i].Disabled
	if err := c.save(ctx, sources); err != nil {
		return models.Source{}, err
	}
	return sources[i], nil
}

// Reorder rewrites the catalog in the order of keys, setting Order to each
// key's first index. Unknown and repeated keys are skipped.
//
// Sources whose key is not listed are dropped from the catalog. This matches
// the behaviour the admin UI was built against; whether it is intended
// pruning is still an open product question.
func (c *Catalog) Reorder(ctx context.Context, keys []string) ([]models.Source, error) {
	if keys == nil {
		return nil, fmt.Errorf("%w: keys must be a list of source keys", ErrValidation)
	}
	sources, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(keys))
	ordered := make([]models.Source, 0, len(keys))
	for idx, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		i := indexOf(sources, key)
		if i < 0 {
			continue
		}
		src := sources[i]
		src.Order = idx
		ordered = append(ordered, src)
	}

	if err := c.save(ctx, ordered); err != nil {
		return nil, err
	}
	return ordered, nil
}

// count asks the counter for src's channel count. ok is false when there is
// no counter or the count failed; failures are logged, not returned.
func (c *Catalog) count(ctx context.Context, src models.Source, force bool) (n int, ok bool) {
	if c.counter == nil {
		return 0, false
	}
	n, err := c.counter.CountChannels(ctx, src, force)
	if err != nil {
		log.Printf("catalog: channel count for %s: %v", src.Key, err)
		return 0, false
	}
	return n, true
}

func (c *Catalog) save(ctx context.Context, sources []models.Source) error {
	if err := c.store.SetSourceCatalog(ctx, sources); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	metrics.CatalogSources.Set(float64(len(sources)))
	return nil
}

func indexOf(sources []models.Source, key string) int {
	for i := range sources {
		if sources[i].Key == key {
			return i
		}
	}
	return -1
}
