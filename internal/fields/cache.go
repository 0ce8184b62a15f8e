package fields

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader fetches an entity's definitions from the source of truth.
// *Repository satisfies it.
type Loader interface {
	LoadDefinitions(ctx context.Context, entity EntityType) ([]FieldDefinition, error)
}

type cacheEntry struct {
	defs     []FieldDefinition
	loadedAt time.Time
}

// Cache keeps per-entity definition lists with a TTL. Concurrent misses for
// the same entity collapse into one load. Mutations to definitions must call
// Invalidate so forms pick the change up immediately instead of after the
// TTL lapses.
type Cache struct {
	loader Loader
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[EntityType]cacheEntry
	group   singleflight.Group

	now func() time.Time
}

func NewCache(loader Loader, ttl time.Duration) *Cache {
	return &Cache{
		loader:  loader,
		ttl:     ttl,
		entries: make(map[EntityType]cacheEntry),
		now:     time.Now,
	}
}

// Definitions returns the definitions for an entity, from cache when fresh.
func (c *Cache) Definitions(ctx context.Context, entity EntityType) ([]FieldDefinition, error) {
	if !ValidEntityType(entity) {
		return nil, fmt.Errorf("unknown entity type %q", entity)
	}

	c.mu.RLock()
	e, ok := c.entries[entity]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.loadedAt) < c.ttl {
		return e.defs, nil
	}

	v, err, _ := c.group.Do(string(entity), func() (any, error) {
		// A load that finished while we queued behind it is good enough.
		c.mu.RLock()
		e, ok := c.entries[entity]
		c.mu.RUnlock()
		if ok && c.now().Sub(e.loadedAt) < c.ttl {
			return e.defs, nil
		}

		defs, err := c.loader.LoadDefinitions(ctx, entity)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[entity] = cacheEntry{defs: defs, loadedAt: c.now()}
		c.mu.Unlock()
		return defs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]FieldDefinition), nil
}

// Invalidate drops one entity's cached definitions.
func (c *Cache) Invalidate(entity EntityType) {
	c.mu.Lock()
	delete(c.entries, entity)
	c.mu.Unlock()
}

// Clear drops everything, for session teardown.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[EntityType]cacheEntry)
	c.mu.Unlock()
}
