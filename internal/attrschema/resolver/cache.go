package resolver

import (
	"context"
	"sync"

	"cadastre/internal/attrschema/models"
)

// Cache stores resolved effective schemas keyed by
// (scope chain, object type, subtype, valid time). Because a correction to a
// definition can change the historical answer for an already-cached valid
// time, every definition write purges the cache rather than trying to
// invalidate selectively.
type Cache interface {
	Get(ctx context.Context, key string) (*models.EffectiveSchema, bool)
	Set(ctx context.Context, key string, schema *models.EffectiveSchema)
	Purge(ctx context.Context)
}

// MemoryCache is the in-process cache implementation.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*models.EffectiveSchema
}

// NewMemoryCache creates an empty in-process schema cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*models.EffectiveSchema)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (*models.EffectiveSchema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	schema, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	// Hand out a copy so a caller mutating the result cannot corrupt the
	// entry for later readers.
	return schema.Clone(), true
}

func (c *MemoryCache) Set(ctx context.Context, key string, schema *models.EffectiveSchema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = schema.Clone()
}

func (c *MemoryCache) Purge(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*models.EffectiveSchema)
}
