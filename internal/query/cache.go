// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

/*
Package query provides the stale-time cache between the view layer and the
backend client.

A query is addressed by a key built from a resource name plus parameters.
Within the stale-time window the stored result is served without touching
the backend; once stale, the next caller refetches, and concurrent callers
for the same key are coalesced into a single backend round trip. Fetch
errors are surfaced immediately and never cached.

Writes go through Mutate, which on success marks the affected key prefixes
stale. Invalidation never refetches anything itself: the next read for a
marked key goes back to the backend, so reads always reflect server truth
after a write.
*/
package query

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/anupam-talentica/bookreview-client/internal/bus"
	"github.com/anupam-talentica/bookreview-client/internal/logging"
	"github.com/anupam-talentica/bookreview-client/internal/metrics"
)

// ErrDisabled is returned by Do when the query is gated off. Views gate
// authenticated-only queries with Options.Enabled so an unauthenticated
// surface never reaches the backend.
var ErrDisabled = errors.New("query disabled")

// FetchFunc loads a value from the backend on a cache miss.
type FetchFunc func(ctx context.Context) (interface{}, error)

// Options control a single Do call.
type Options struct {
	// StaleTime is how long the fetched value is served without re-querying
	// the backend. Zero falls back to the cache default.
	StaleTime time.Duration

	// Enabled gates the fetch. A disabled query returns ErrDisabled without
	// touching the cache or the backend.
	Enabled bool
}

// Entry is one cached fetch result.
type Entry struct {
	Data      interface{}
	FetchedAt time.Time
	StaleAt   time.Time

	// Stale is set by Invalidate. A marked entry is never served again,
	// regardless of StaleAt.
	Stale bool
}

// Stats tracks cache performance counters.
type Stats struct {
	mu          sync.RWMutex
	Hits        int64
	Misses      int64
	Evictions   int64
	StaleMarks  int64
	TotalKeys   int64
	LastCleanup time.Time
}

// Cache is a thread-safe stale-time cache with request coalescing.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry

	staleTime time.Duration
	group     singleflight.Group

	// bus receives a cache.invalidated event per prefix on the Mutate path.
	// May be nil.
	bus *bus.Bus

	stats Stats
}

// New creates a cache whose entries go stale after defaultStaleTime unless
// the Do call overrides it. eventBus may be nil; expired entries are swept
// by a separately supervised Janitor.
func New(defaultStaleTime time.Duration, eventBus *bus.Bus) *Cache {
	if defaultStaleTime <= 0 {
		defaultStaleTime = time.Minute
	}
	return &Cache{
		entries:   make(map[string]Entry),
		staleTime: defaultStaleTime,
		bus:       eventBus,
		stats: Stats{
			LastCleanup: time.Now(),
		},
	}
}

// Do returns the cached value for key when it is still fresh, otherwise
// invokes fn exactly once across concurrent callers for the same key and
// stores the result. Fetch errors are returned as-is and nothing is stored
// for them.
func (c *Cache) Do(ctx context.Context, key string, fn FetchFunc, opts Options) (interface{}, error) {
	if !opts.Enabled {
		return nil, ErrDisabled
	}

	if data, ok := c.lookup(key); ok {
		c.recordHit()
		return data, nil
	}
	c.recordMiss()

	staleTime := opts.StaleTime
	if staleTime <= 0 {
		staleTime = c.staleTime
	}

	// The flight is shared by every coalesced caller, so it must not die
	// with whichever caller happened to start it. The fetch runs detached
	// from the winner's cancellation (request-scoped values survive for
	// logging); the backend client's own timeout bounds the round trip.
	fetchCtx := context.WithoutCancel(ctx)

	data, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A flight that completed between the miss and joining this one has
		// already stored the value; serve it without another fetch.
		if data, ok := c.lookup(key); ok {
			return data, nil
		}
		data, err := fn(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.store(key, data, staleTime)
		return data, nil
	})
	return data, err
}

// lookup returns the stored data when the entry is present, fresh, and not
// marked stale. Unservable entries are removed on sight.
func (c *Cache) lookup(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if entry.Stale || time.Now().After(entry.StaleAt) {
		c.mu.Lock()
		// Delete only the generation we inspected; a concurrent store may
		// have replaced the entry with a fresh one.
		if current, ok := c.entries[key]; ok && current.FetchedAt.Equal(entry.FetchedAt) {
			delete(c.entries, key)
			c.recordEvictions(1)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.Data, true
}

// store installs a fresh entry. Last store for a key wins; this is safe
// because queries are idempotent reads.
func (c *Cache) store(key string, data interface{}, staleTime time.Duration) {
	now := time.Now()
	c.mu.Lock()
	c.entries[key] = Entry{
		Data:      data,
		FetchedAt: now,
		StaleAt:   now.Add(staleTime),
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.TotalKeys = total
	c.stats.mu.Unlock()
	metrics.CacheEntries.Set(float64(total))
}

// Invalidate marks every entry whose key begins with prefix as stale and
// returns the number of entries newly marked. It never refetches; the next
// Do for a marked key goes back to the backend.
func (c *Cache) Invalidate(prefix string) int {
	marked := 0
	c.mu.Lock()
	for key, entry := range c.entries {
		if !entry.Stale && strings.HasPrefix(key, prefix) {
			entry.Stale = true
			c.entries[key] = entry
			marked++
		}
	}
	c.mu.Unlock()

	if marked > 0 {
		c.stats.mu.Lock()
		c.stats.StaleMarks += int64(marked)
		c.stats.mu.Unlock()
	}
	metrics.RecordInvalidation(prefix, marked)
	return marked
}

// InvalidateAll invalidates each prefix and publishes a cache.invalidated
// event per prefix so connected UI clients can refresh.
func (c *Cache) InvalidateAll(ctx context.Context, prefixes ...string) {
	for _, prefix := range prefixes {
		marked := c.Invalidate(prefix)
		c.publishInvalidation(ctx, prefix, marked)
	}
}

// Mutate runs one write against the backend. On success the listed key
// prefixes are invalidated; on failure the cache is left untouched.
func (c *Cache) Mutate(ctx context.Context, fn func(context.Context) error, prefixes ...string) error {
	if err := fn(ctx); err != nil {
		return err
	}
	c.InvalidateAll(ctx, prefixes...)
	return nil
}

func (c *Cache) publishInvalidation(ctx context.Context, prefix string, marked int) {
	if c.bus == nil {
		return
	}
	err := c.bus.PublishCacheInvalidated(ctx, bus.InvalidationEvent{
		Prefix: prefix,
		Marked: marked,
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("prefix", prefix).Msg("Failed to publish invalidation event")
	}
}

// Sweep removes every entry that is marked stale or past its stale time and
// returns the number removed. Stale entries are never served, so holding
// them only costs memory.
func (c *Cache) Sweep() int {
	now := time.Now()
	c.mu.Lock()
	evicted := 0
	for key, entry := range c.entries {
		if entry.Stale || now.After(entry.StaleAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += int64(evicted)
	c.stats.TotalKeys = total
	c.stats.LastCleanup = now
	c.stats.mu.Unlock()

	metrics.CacheEntries.Set(float64(total))
	if evicted > 0 {
		metrics.CacheEvictions.Add(float64(evicted))
	}
	return evicted
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:        c.stats.Hits,
		Misses:      c.stats.Misses,
		Evictions:   c.stats.Evictions,
		StaleMarks:  c.stats.StaleMarks,
		TotalKeys:   c.stats.TotalKeys,
		LastCleanup: c.stats.LastCleanup,
	}
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	metrics.RecordCacheHit()
}

func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
	metrics.RecordCacheMiss()
}

func (c *Cache) recordEvictions(n int64) {
	c.stats.mu.Lock()
	c.stats.Evictions += n
	c.stats.mu.Unlock()
	metrics.CacheEvictions.Add(float64(n))
}

// Key builds a cache key from a resource name and its parameters. The
// parameters are serialized and hashed so arbitrary structs make stable,
// compact keys; the resource name leads the key so prefix invalidation can
// target a whole resource.
func Key(resource string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to simple string key
		return fmt.Sprintf("%s:%v", resource, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", resource, hash[:16])
}

// Prefix addresses every key of one resource, regardless of parameters.
// The trailing separator keeps "book" from matching "book-reviews".
func Prefix(resource string) string {
	return resource + ":"
}
