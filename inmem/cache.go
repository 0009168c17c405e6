// Package inmem provides process-local implementations of mapscrape services.
package inmem

import (
	"sync"
	"time"

	"github.com/fwojciec/mapscrape"
)

// DefaultTTL is how long a result stays cached.
const DefaultTTL = time.Hour

// DefaultSweepThreshold is the entry count above which Store also removes
// expired entries.
const DefaultSweepThreshold = 1000

// Ensure ResultCache implements mapscrape.ResultCache at compile time.
var _ mapscrape.ResultCache = (*ResultCache)(nil)

// ResultCache is a TTL cache of scrape results. Expired entries are evicted
// lazily on lookup, on Store once the cache grows past the sweep threshold,
// and by explicit calls to Sweep.
//
// ResultCache is safe for concurrent use.
type ResultCache struct {
	mu        sync.Mutex
	entries   map[string]cacheEntry
	ttl       time.Duration
	now       func() time.Time
	threshold int
}

type cacheEntry struct {
	result    *mapscrape.ScrapeResult
	expiresAt time.Time
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithClock replaces time.Now as the cache's time source.
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) {
		c.now = now
	}
}

// WithSweepThreshold sets the entry count above which Store sweeps expired
// entries. Defaults to DefaultSweepThreshold.
func WithSweepThreshold(n int) Option {
	return func(c *ResultCache) {
		c.threshold = n
	}
}

// NewResultCache returns an empty cache whose entries live for ttl.
// A ttl of zero or less uses DefaultTTL.
func NewResultCache(ttl time.Duration, opts ...Option) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &ResultCache{
		entries:   make(map[string]cacheEntry),
		ttl:       ttl,
		now:       time.Now,
		threshold: DefaultSweepThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns a copy of the unexpired result for fingerprint.
func (c *ResultCache) Lookup(fingerprint string) (*mapscrape.ScrapeResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fingerprint]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, fingerprint)
		return nil, false
	}
	return e.result.Clone(), true
}

// Store caches a copy of result under fingerprint, replacing any entry.
func (c *ResultCache) Store(fingerprint string, result *mapscrape.ScrapeResult) {
	if result == nil {
		return
	}
	cp := result.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[fingerprint] = cacheEntry{result: cp, expiresAt: now.Add(c.ttl)}
	if c.threshold > 0 && len(c.entries) > c.threshold {
		c.sweep(now)
	}
}

// Sweep removes expired entries and returns how many were removed.
func (c *ResultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweep(c.now())
}

// TTL returns how long entries live.
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sweep must be called with mu held.
func (c *ResultCache) sweep(now time.Time) int {
	var n int
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}
