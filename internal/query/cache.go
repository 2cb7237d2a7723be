package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"salesync/pkg/model"
)

// BlobStore is the cache backend. Get reports found=false for an absent key;
// Set stores the value with the given TTL.
type BlobStore interface {
	GetBlob(ctx context.Context, key string) (value []byte, found bool, err error)
	SetBlob(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ViewCache keeps fully aggregated view row sets in a blob store for a short
// TTL. Rows are cached pre-sort and pre-pagination so every page of a view is
// served from one cached entry.
type ViewCache struct {
	store  BlobStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewViewCache wraps the blob store with the configured entry lifetime.
func NewViewCache(store BlobStore, ttl time.Duration, logger *slog.Logger) *ViewCache {
	return &ViewCache{
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "view-cache"),
	}
}

// GetOrCompute returns the cached row set for key, or calls compute, caches
// the result and returns it. fromCache reports which path served the rows.
// Cache read and write failures degrade to a recompute; only a failed compute
// is an error.
func (c *ViewCache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) ([]model.Row, error)) (rows []model.Row, fromCache bool, err error) {
	blob, found, err := c.store.GetBlob(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	} else if found {
		if err := json.Unmarshal(blob, &rows); err != nil {
			// A corrupt entry is treated as a miss and overwritten below.
			c.logger.Warn("discarding corrupt cache entry", "key", key, "error", err)
		} else {
			return rows, true, nil
		}
	}

	rows, err = compute(ctx)
	if err != nil {
		return nil, false, err
	}

	blob, err = json.Marshal(rows)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return rows, false, nil
	}
	if err := c.store.SetBlob(ctx, key, blob, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return rows, false, nil
}
