// Package cache provides the process-wide TTL cache that fronts all
// upstream provider calls. Entries expire lazily: an expired entry is never
// returned, and a periodic opportunistic sweep keeps the map bounded.
//
// Caches are constructed at startup and injected into whatever needs them;
// the service runs one namespace for the proxy layer and one for the
// snapshot provider layer, each with its own default TTL.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is the fallback entry lifetime when none is configured.
const DefaultTTL = time.Hour

// sweepInterval bounds how often Set scans for expired entries.
const sweepInterval = 5 * time.Minute

type entry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time
}

// Cache is a concurrency-safe key/value store with per-entry expiry.
// It is an accelerator in front of idempotent reads, never a source of
// truth: a miss only ever costs an upstream call.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	lastSweep  time.Time
}

// New creates a cache with the given default TTL. A non-positive TTL falls
// back to DefaultTTL.
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
	}
}

// Get returns the live value for key, or (nil, false) when the key is
// absent or expired. Expired entries are deleted on access.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have renewed it.
		if cur, still := c.entries[key]; still && time.Now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL.
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) {
	now := time.Now()
	c.mu.Lock()
	c.entries[key] = entry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	c.sweepLocked(now)
	c.mu.Unlock()
}

// Flush removes every entry.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Stats reports entry counts for observability.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	live := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			live++
		}
	}
	return Stats{Entries: len(c.entries), Live: live}
}

// Stats describes the cache population.
type Stats struct {
	Entries int `json:"entries"`
	Live    int `json:"live"`
}

// sweepLocked drops expired entries at most once per sweepInterval.
// Caller holds the write lock.
func (c *Cache) sweepLocked(now time.Time) {
	if now.Sub(c.lastSweep) < sweepInterval {
		return
	}
	c.lastSweep = now
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// Key builds a deterministic cache key from an endpoint name, coordinates
// rounded to four decimals (~11m, well inside a provider grid cell), and any
// extra qualifiers such as date ranges. Identical parameters always produce
// identical keys.
func Key(endpoint string, lat, lon float64, extra ...string) string {
	parts := make([]string, 0, 3+len(extra))
	parts = append(parts,
		endpoint,
		strconv.FormatFloat(lat, 'f', 4, 64),
		strconv.FormatFloat(lon, 'f', 4, 64),
	)
	parts = append(parts, extra...)
	return strings.Join(parts, "-")
}

// QueryKey builds a deterministic cache key from an endpoint name and a raw
// query string (used by the city search endpoint).
func QueryKey(endpoint, query string) string {
	return endpoint + "-" + query
}
