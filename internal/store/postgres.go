package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyagen/livecatalog/internal/models"
)

// Postgres implements Store using PostgreSQL. The catalog is a single JSONB
// row; each cached playlist is one row keyed by source key.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// GetSourceCatalog returns the stored catalog, or nil if none was written yet.
func (p *Postgres) GetSourceCatalog(ctx context.Context) ([]models.Source, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT sources FROM live_catalog WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetSourceCatalog: %w", err)
	}
	var sources []models.Source
	if err := json.Unmarshal(raw, &sources); err != nil {
		return nil, fmt.Errorf("GetSourceCatalog: decode: %w", err)
	}
	return sources, nil
}

// SetSourceCatalog upserts the catalog row.
func (p *Postgres) SetSourceCatalog(ctx context.Context, sources []models.Source) error {
	if sources == nil {
		sources = []models.Source{}
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("SetSourceCatalog: encode: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO live_catalog (id, sources, updated_at) VALUES (1, $1, NOW())
		 ON CONFLICT (id) DO UPDATE SET sources = EXCLUDED.sources, updated_at = NOW()`,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("SetSourceCatalog: %w", err)
	}
	return nil
}

// GetCachedChannels returns the cached playlist for sourceKey, or nil.
func (p *Postgres) GetCachedChannels(ctx context.Context, sourceKey string) (*models.ChannelCache, error) {
	entry := models.ChannelCache{SourceKey: sourceKey}
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT channels, fetched_at, expires_at FROM live_channel_cache WHERE source_key = $1`,
		sourceKey,
	).Scan(&raw, &entry.FetchedAt, &entry.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetCachedChannels: %w", err)
	}
	if err := json.Unmarshal(raw, &entry.Channels); err != nil {
		return nil, fmt.Errorf("GetCachedChannels: decode: %w", err)
	}
	return &entry, nil
}

// SetCachedChannels inserts or replaces the cached playlist for sourceKey.
func (p *Postgres) SetCachedChannels(ctx context.Context, sourceKey string, entry models.ChannelCache) error {
	channels := entry.Channels
	if channels == nil {
		channels = []models.Channel{}
	}
	raw, err := json.Marshal(channels)
	if err != nil {
		return fmt.Errorf("SetCachedChannels: encode: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO live_channel_cache (source_key, channels, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (source_key) DO UPDATE SET
		   channels = EXCLUDED.channels, fetched_at = EXCLUDED.fetched_at, expires_at = EXCLUDED.expires_at`,
		sourceKey, string(raw), entry.FetchedAt, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("SetCachedChannels: %w", err)
	}
	return nil
}

// DeleteCachedChannels removes the cached playlist for sourceKey.
func (p *Postgres) DeleteCachedChannels(ctx context.Context, sourceKey string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM live_channel_cache WHERE source_key = $1`, sourceKey); err != nil {
		return fmt.Errorf("DeleteCachedChannels: %w", err)
	}
	return nil
}
