// Package slog provides logging decorators for mapscrape services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/mapscrape"
)

// Ensure LoggingScraper implements mapscrape.Scraper.
var _ mapscrape.Scraper = (*LoggingScraper)(nil)

// LoggingScraper wraps a Scraper and logs every query with its outcome.
type LoggingScraper struct {
	next   mapscrape.Scraper
	logger *slog.Logger
}

// NewLoggingScraper creates a new LoggingScraper.
func NewLoggingScraper(next mapscrape.Scraper, logger *slog.Logger) *LoggingScraper {
	return &LoggingScraper{next: next, logger: logger}
}

// Scrape delegates to the wrapped scraper and logs the query, result size
// and duration.
func (s *LoggingScraper) Scrape(ctx context.Context, q mapscrape.Query) (result *mapscrape.ScrapeResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"fingerprint", q.Normalize().Fingerprint(),
			"search_term", q.SearchTerm,
			"region", q.Region,
			"max_results", q.MaxResults,
			"duration", time.Since(begin),
		}
		if result != nil {
			attrs = append(attrs, "total", result.Total, "from_cache", result.FromCache)
		}
		if err != nil {
			attrs = append(attrs, "code", mapscrape.ErrorCode(err), "err", err)
			s.logger.Error("scrape", attrs...)
			return
		}
		s.logger.Info("scrape", attrs...)
	}(time.Now())

	return s.next.Scrape(ctx, q)
}
