package inmem_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/mapscrape"
	"github.com/fwojciec/mapscrape/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func result(names ...string) *mapscrape.ScrapeResult {
	q := mapscrape.Query{SearchTerm: "padaria", MaxResults: 5}
	var records []mapscrape.ListingRecord
	for _, n := range names {
		rec := mapscrape.NewListingRecord("https://www.google.com/maps/place/" + n)
		rec.Name = n
		records = append(records, *rec)
	}
	return mapscrape.NewScrapeResult(q, records, time.Unix(0, 0))
}

func TestResultCache(t *testing.T) {
	t.Parallel()

	t.Run("misses on an empty cache", func(t *testing.T) {
		t.Parallel()

		c := inmem.NewResultCache(time.Hour)
		_, ok := c.Lookup("abc")

		assert.False(t, ok)
	})

	t.Run("falls back to the default ttl", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, inmem.DefaultTTL, inmem.NewResultCache(0).TTL())
		assert.Equal(t, time.Minute, inmem.NewResultCache(time.Minute).TTL())
	})

	t.Run("returns a stored result before expiry", func(t *testing.T) {
		t.Parallel()

		clk := newClock()
		c := inmem.NewResultCache(time.Hour, inmem.WithClock(clk.Now))
		c.Store("abc", result("A", "B"))

		clk.Advance(59 * time.Minute)
		got, ok := c.Lookup("abc")

		require.True(t, ok)
		assert.Equal(t, 2, got.Total)
		assert.Equal(t, "A", got.Records[0].Name)
	})

	t.Run("treats expired entries as misses and evicts them", func(t *testing.T) {
		t.Parallel()

		clk := newClock()
		c := inmem.NewResultCache(time.Hour, inmem.WithClock(clk.Now))
		c.Store("abc", result("A"))

		clk.Advance(time.Hour)
		_, ok := c.Lookup("abc")

		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("overwrites an existing entry and restarts its ttl", func(t *testing.T) {
		t.Parallel()

		clk := newClock()
		c := inmem.NewResultCache(time.Hour, inmem.WithClock(clk.Now))
		c.Store("abc", result("old"))
		clk.Advance(30 * time.Minute)
		c.Store("abc", result("new"))
		clk.Advance(45 * time.Minute)

		got, ok := c.Lookup("abc")

		require.True(t, ok)
		assert.Equal(t, "new", got.Records[0].Name)
	})

	t.Run("isolates cached results from callers", func(t *testing.T) {
		t.Parallel()

		c := inmem.NewResultCache(time.Hour)
		stored := result("A")
		c.Store("abc", stored)
		stored.Records[0].Name = "mutated after store"

		first, ok := c.Lookup("abc")
		require.True(t, ok)
		first.FromCache = true
		first.Records[0].Name = "mutated after lookup"

		second, ok := c.Lookup("abc")
		require.True(t, ok)
		assert.False(t, second.FromCache)
		assert.Equal(t, "A", second.Records[0].Name)
	})

	t.Run("ignores nil results", func(t *testing.T) {
		t.Parallel()

		c := inmem.NewResultCache(time.Hour)
		c.Store("abc", nil)

		assert.Equal(t, 0, c.Len())
	})

	t.Run("sweep removes only expired entries", func(t *testing.T) {
		t.Parallel()

		clk := newClock()
		c := inmem.NewResultCache(time.Hour, inmem.WithClock(clk.Now))
		c.Store("old", result("A"))
		clk.Advance(40 * time.Minute)
		c.Store("fresh", result("B"))
		clk.Advance(30 * time.Minute)

		removed := c.Sweep()

		assert.Equal(t, 1, removed)
		assert.Equal(t, 1, c.Len())
		_, ok := c.Lookup("fresh")
		assert.True(t, ok)
	})

	t.Run("store sweeps once past the threshold", func(t *testing.T) {
		t.Parallel()

		clk := newClock()
		c := inmem.NewResultCache(time.Minute, inmem.WithClock(clk.Now), inmem.WithSweepThreshold(2))
		c.Store("a", result("A"))
		c.Store("b", result("B"))
		clk.Advance(2 * time.Minute)
		c.Store("c", result("C"))

		assert.Equal(t, 1, c.Len())
	})

	t.Run("is safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		c := inmem.NewResultCache(time.Hour)
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				key := fmt.Sprintf("k%d", i%5)
				c.Store(key, result(key))
				if got, ok := c.Lookup(key); ok {
					assert.Equal(t, 1, got.Total)
				}
				c.Sweep()
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, c.Len())
	})
}
