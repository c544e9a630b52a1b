// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package catalog

import (
	"context"
	"time"

	"github.com/tomtom215/fitline/internal/cache"
	"github.com/tomtom215/fitline/internal/models"
)

// CachedCatalog memoizes Resolve. Misses are not cached so newly added
// items become visible immediately.
type CachedCatalog struct {
	next  Catalog
	items *cache.LRU[models.CatalogItem]
}

// NewCachedCatalog wraps next with an LRU of the given size and TTL.
func NewCachedCatalog(next Catalog, capacity int, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{next: next, items: cache.NewLRU[models.CatalogItem](capacity, ttl)}
}

func (c *CachedCatalog) Resolve(ctx context.Context, itemID string) (models.CatalogItem, error) {
	if item, ok := c.items.Get(itemID); ok {
		return item, nil
	}
	item, err := c.next.Resolve(ctx, itemID)
	if err != nil {
		return item, err
	}
	c.items.Set(itemID, item)
	return item, nil
}

func (c *CachedCatalog) SearchByAttributes(ctx context.Context, q AttributeQuery) ([]models.CatalogItem, error) {
	return c.next.SearchByAttributes(ctx, q)
}

func (c *CachedCatalog) List(ctx context.Context, q ListQuery) ([]models.CatalogItem, error) {
	return c.next.List(ctx, q)
}

// Invalidate drops a cached item, e.g. after an upsert.
func (c *CachedCatalog) Invalidate(itemID string) {
	c.items.Delete(itemID)
}

// Stats returns cache hit and miss counts.
func (c *CachedCatalog) Stats() (hits, misses int64) {
	return c.items.Stats()
}

var _ Catalog = (*CachedCatalog)(nil)
