package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/voyagen/livecatalog/internal/models"
)

const (
	boltCatalogBucket  = "catalog"
	boltChannelsBucket = "channels"
	boltCatalogKey     = "sources"
)

// Bolt implements Store on an embedded bbolt database file.
type Bolt struct {
	db *bbolt.DB
}

// NewBolt wraps an open bbolt database, creating the buckets it needs.
func NewBolt(db *bbolt.DB) (*Bolt, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{boltCatalogBucket, boltChannelsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) GetSourceCatalog(_ context.Context) ([]models.Source, error) {
	var sources []models.Source
	err := b.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(boltCatalogBucket)).Get([]byte(boltCatalogKey))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &sources)
	})
	if err != nil {
		return nil, fmt.Errorf("GetSourceCatalog: %w", err)
	}
	return sources, nil
}

func (b *Bolt) SetSourceCatalog(_ context.Context, sources []models.Source) error {
	raw, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("SetSourceCatalog: encode: %w", err)
	}
	err = b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltCatalogBucket)).Put([]byte(boltCatalogKey), raw)
	})
	if err != nil {
		return fmt.Errorf("SetSourceCatalog: %w", err)
	}
	return nil
}

func (b *Bolt) GetCachedChannels(_ context.Context, sourceKey string) (*models.ChannelCache, error) {
	var entry *models.ChannelCache
	err := b.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(boltChannelsBucket)).Get([]byte(sourceKey))
		if raw == nil {
			return nil
		}
		entry = &models.ChannelCache{}
		return json.Unmarshal(raw, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("GetCachedChannels %s: %w", sourceKey, err)
	}
	return entry, nil
}

func (b *Bolt) SetCachedChannels(_ context.Context, sourceKey string, entry models.ChannelCache) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("SetCachedChannels %s: encode: %w", sourceKey, err)
	}
	err = b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltChannelsBucket)).Put([]byte(sourceKey), raw)
	})
	if err != nil {
		return fmt.Errorf("SetCachedChannels %s: %w", sourceKey, err)
	}
	return nil
}

func (b *Bolt) DeleteCachedChannels(_ context.Context, sourceKey string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltChannelsBucket)).Delete([]byte(sourceKey))
	})
	if err != nil {
		return fmt.Errorf("DeleteCachedChannels %s: %w", sourceKey, err)
	}
	return nil
}
