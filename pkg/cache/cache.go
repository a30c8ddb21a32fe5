// Package cache stores JSON values with an expiry in a storage.Storage.
// Entries are kept as {"data": ..., "expiration": <epoch ms>} so they stay
// readable by anything else sharing the same storage.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"kitapsever/pkg/storage"
)

// Prefixes are the key families Cleanup sweeps.
var Prefixes = []string{"book_", "featured_"}

type entry struct {
	Data       json.RawMessage `json:"data"`
	Expiration int64           `json:"expiration"`
}

// Cache is a TTL layer over a key/value store. Concurrent writers to the same
// key race and the last write wins.
type Cache struct {
	store  storage.Storage
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func New(store storage.Storage, opts ...Option) *Cache {
	c := &Cache{store: store, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key. Expired or unreadable entries are
// removed and reported as absent.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.logger.Warn("cache entry corrupt", "key", key, "err", err)
		c.remove(ctx, key)
		return nil, false
	}
	if c.now().UnixMilli() >= e.Expiration {
		c.remove(ctx, key)
		return nil, false
	}
	return e.Data, true
}

// GetInto decodes the cached value for key into v.
func (c *Cache) GetInto(ctx context.Context, key string, v any) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("cache entry undecodable", "key", key, "err", err)
		return false
	}
	return true
}

// Put stores value under key until now+ttl. A failed write triggers a
// Cleanup sweep and is otherwise dropped; the entry is not retried.
func (c *Cache) Put(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache value not encodable", "key", key, "err", err)
		return
	}
	payload, err := json.Marshal(entry{Data: data, Expiration: c.now().Add(ttl).UnixMilli()})
	if err != nil {
		c.logger.Warn("cache entry not encodable", "key", key, "err", err)
		return
	}
	if err := c.store.Set(ctx, key, string(payload)); err != nil {
		c.logger.Warn("cache write failed", "key", key, "err", err)
		c.Cleanup(ctx)
	}
}

// Cleanup removes every expired or corrupt entry under Prefixes and returns
// how many were removed.
func (c *Cache) Cleanup(ctx context.Context) int {
	keys, err := storage.KeysWithPrefix(ctx, c.store, Prefixes...)
	if err != nil {
		c.logger.Warn("cache cleanup failed", "err", err)
		return 0
	}
	now := c.now().UnixMilli()
	removed := 0
	for _, key := range keys {
		raw, ok, err := c.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err == nil && now < e.Expiration {
			continue
		}
		if c.remove(ctx, key) {
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("cache cleanup", "removed", removed)
	}
	return removed
}

func (c *Cache) remove(ctx context.Context, key string) bool {
	if err := c.store.Remove(ctx, key); err != nil {
		c.logger.Warn("cache remove failed", "key", key, "err", err)
		return false
	}
	return true
}
