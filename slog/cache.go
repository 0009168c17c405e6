package slog

import (
	"log/slog"

	"github.com/fwojciec/mapscrape"
)

// Ensure LoggingCache implements mapscrape.ResultCache.
var _ mapscrape.ResultCache = (*LoggingCache)(nil)

// LoggingCache wraps a ResultCache with debug logging of hits and stores.
type LoggingCache struct {
	next   mapscrape.ResultCache
	logger *slog.Logger
}

// NewLoggingCache creates a new LoggingCache.
func NewLoggingCache(next mapscrape.ResultCache, logger *slog.Logger) *LoggingCache {
	return &LoggingCache{next: next, logger: logger}
}

// Lookup delegates to the wrapped cache.
func (c *LoggingCache) Lookup(fingerprint string) (*mapscrape.ScrapeResult, bool) {
	result, ok := c.next.Lookup(fingerprint)
	c.logger.Debug("cache lookup",
		"fingerprint", fingerprint,
		"hit", ok,
	)
	return result, ok
}

// Store delegates to the wrapped cache.
func (c *LoggingCache) Store(fingerprint string, result *mapscrape.ScrapeResult) {
	c.next.Store(fingerprint, result)
	total := 0
	if result != nil {
		total = result.Total
	}
	c.logger.Debug("cache store",
		"fingerprint", fingerprint,
		"total", total,
	)
}
