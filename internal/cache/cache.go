// Package cache stores assembled item results keyed by the item's content
// fingerprint. Dispatched classifier calls are expensive; caching their
// fused outcome means a cancelled or re-run batch does not pay for the same
// item twice.
package cache

import (
	"encoding/json"
	"time"

	"github.com/Craigmindset/prevetta/internal/model"
)

// Store defines the byte-level cache interface.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ResultKey derives the cache key for an item fingerprint.
func ResultKey(fingerprint string) string {
	return "prevetta:v1:" + fingerprint
}

// VerdictCache is a typed wrapper storing ItemResults as JSON.
type VerdictCache struct {
	store Store
	ttl   time.Duration
}

// NewVerdictCache builds a verdict cache over the given store. A nil store
// yields a disabled cache on which every lookup misses.
func NewVerdictCache(store Store, ttl time.Duration) *VerdictCache {
	return &VerdictCache{store: store, ttl: ttl}
}

// Get returns the cached result for an item, if present and well-formed.
func (c *VerdictCache) Get(item model.Item) (*model.ItemResult, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	key := ResultKey(item.Fingerprint())
	data, found := c.store.Get(key)
	if !found {
		return nil, false
	}
	var result model.ItemResult
	if err := json.Unmarshal(data, &result); err != nil {
		_ = c.store.Delete(key)
		return nil, false
	}
	return &result, true
}

// Put stores the result for an item. Errors are swallowed: the cache is an
// optimization, never a correctness dependency.
func (c *VerdictCache) Put(item model.Item, result *model.ItemResult) {
	if c == nil || c.store == nil || result == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = c.store.Set(ResultKey(item.Fingerprint()), data, c.ttl)
}

// FromConfig builds the verdict cache described by cfg. Returns nil (cache
// disabled) when cfg.Enabled is false.
func FromConfig(cfg model.CacheConfig) *VerdictCache {
	if !cfg.Enabled {
		return nil
	}
	var store Store
	if cfg.Dir != "" {
		store = NewLayered(cfg.TTL, cfg.Dir, cfg.TTL)
	} else {
		store = NewMemory(cfg.TTL, cfg.CleanupInterval)
	}
	return NewVerdictCache(store, cfg.TTL)
}
