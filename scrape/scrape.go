// Package scrape orchestrates listing queries: it loads the search page,
// discovers listing links, extracts detail pages in paced batches, filters
// the records and caches the result.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/mapscrape"
	"github.com/google/uuid"
)

// DefaultSearchURL is the base URL the site query is appended to.
const DefaultSearchURL = "https://www.google.com/maps/search/"

const (
	// NoListingsMessage accompanies a result whose search page had no
	// listing links.
	NoListingsMessage = "no listings found on the search page"

	// CacheHitMessage accompanies a result served from the cache.
	CacheHitMessage = "result served from cache"
)

// Config holds the tunables of a Scraper.
type Config struct {
	SearchURL string
	Search    NavigatePolicy
	Detail    NavigatePolicy

	// SearchSettle and DetailSettle are pauses after navigation that let
	// client-side rendering finish before the page is read.
	SearchSettle time.Duration
	DetailSettle time.Duration

	// Concurrency is how many detail pages load at once.
	Concurrency int
	// BatchPause separates batches of detail pages.
	BatchPause time.Duration
	// DiscoveryLimit caps how many links are taken from the search page.
	// Links beyond MaxResults replace detail pages that fail.
	DiscoveryLimit int

	Page           PageSetup
	DismissConsent bool
	// AutoScroll is how long the results feed is scrolled before links are
	// read. Zero disables scrolling.
	AutoScroll time.Duration
}

// DefaultConfig returns the settings used in production.
func DefaultConfig() Config {
	return Config{
		SearchURL: DefaultSearchURL,
		Search: NavigatePolicy{
			Retry:         RetryPolicy{Attempts: 3, Backoff: 2 * time.Second},
			Timeout:       30 * time.Second,
			WaitCondition: mapscrape.WaitDOMContentLoaded,
			ReadySelector: "body",
			ReadyTimeout:  10 * time.Second,
		},
		Detail: NavigatePolicy{
			Retry:         RetryPolicy{Attempts: 2, Backoff: 2 * time.Second},
			Timeout:       25 * time.Second,
			WaitCondition: mapscrape.WaitDOMContentLoaded,
			ReadySelector: "body",
			ReadyTimeout:  5 * time.Second,
		},
		SearchSettle:   3 * time.Second,
		DetailSettle:   2 * time.Second,
		Concurrency:    1,
		BatchPause:     3 * time.Second,
		DiscoveryLimit: mapscrape.MaxResultsLimit,
		Page: PageSetup{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			AcceptLanguage: "pt-BR,pt;q=0.9,en;q=0.8",
			Width:          1920,
			Height:         1080,
		},
		DismissConsent: true,
		AutoScroll:     5 * time.Second,
	}
}

// Ensure Scraper implements mapscrape.Scraper at compile time.
var _ mapscrape.Scraper = (*Scraper)(nil)

// Scraper answers queries against the live site.
type Scraper struct {
	Browser   mapscrape.Browser
	Cache     mapscrape.ResultCache
	Extractor mapscrape.FieldExtractor
	Links     mapscrape.LinkDiscoverer
	Pacer     mapscrape.NavigationPacer
	Logger    *slog.Logger
	Config    Config

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Scrape validates q, answers it from the cache when possible and otherwise
// runs the full pipeline in a browser session owned by this call. Every
// successful result is cached, including one with no listings; failures
// never are.
func (s *Scraper) Scrape(ctx context.Context, q mapscrape.Query) (*mapscrape.ScrapeResult, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	fingerprint := q.Fingerprint()
	logger := loggerOrDiscard(s.Logger).With("query_id", uuid.NewString(), "fingerprint", fingerprint)

	if s.Cache != nil {
		if cached, ok := s.Cache.Lookup(fingerprint); ok {
			cached.FromCache = true
			if cached.Message == "" {
				cached.Message = CacheHitMessage
			} else {
				cached.Message = CacheHitMessage + "; " + cached.Message
			}
			return cached, nil
		}
	}

	result, err := s.run(ctx, q, logger)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		s.Cache.Store(fingerprint, result)
	}
	return result, nil
}

// run executes everything between session acquisition and assembly. The
// session is closed on every return path, including panics.
func (s *Scraper) run(ctx context.Context, q mapscrape.Query, logger *slog.Logger) (result *mapscrape.ScrapeResult, err error) {
	session, err := s.Browser.OpenSession(ctx)
	if err != nil {
		logger.Error("opening session", "err", truncateErr(err))
		return nil, sessionError(err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("closing session", "err", truncateErr(err))
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("query aborted", "panic", r)
			result = nil
			err = mapscrape.Errorf(mapscrape.EINTERNAL, "query aborted: %s",
				mapscrape.Truncate(fmt.Sprint(r), mapscrape.MaxErrorMessageLength))
		}
	}()

	links, err := s.discover(ctx, session, q, logger)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		logger.Info("no listing links discovered")
		r := mapscrape.NewScrapeResult(q, nil, s.now())
		r.Message = NoListingsMessage
		return r, nil
	}

	proc := &Processor{
		Navigator: s.navigator(logger),
		Extractor: s.Extractor,
		Policy:    s.Config.Detail,
		Setup:     s.Config.Page,
		Settle:    s.Config.DetailSettle,
		Logger:    logger,
	}
	opts := mapscrape.ExtractOptions{IncludeHours: q.IncludeHours, IncludeReviews: q.IncludeReviews}

	outcomes := ProcessAll(ctx, links, BatchOptions{
		Size:   s.Config.Concurrency,
		Pause:  s.Config.BatchPause,
		Target: q.MaxResults,
	}, func(ctx context.Context, link string) (*mapscrape.ListingRecord, error) {
		return proc.Process(ctx, session, link, opts)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := Successes(outcomes, q.MaxResults, logger)
	extracted := len(records)
	records = FilterByRating(records, q.MinRating)

	logger.Info("query complete",
		"links", len(links),
		"processed", len(outcomes),
		"extracted", extracted,
		"kept", len(records),
	)
	return mapscrape.NewScrapeResult(q, records, s.now()), nil
}

// discover loads the search results page and returns its listing links.
func (s *Scraper) discover(ctx context.Context, session mapscrape.Session, q mapscrape.Query, logger *slog.Logger) ([]string, error) {
	page, err := session.NewPage(ctx)
	if err != nil {
		return nil, sessionError(err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn("closing search page", "err", truncateErr(err))
		}
	}()

	if err := s.Config.Page.Apply(page); err != nil {
		return nil, sessionError(err)
	}

	searchURL := s.SearchURL(q)
	if err := s.navigator(logger).Navigate(ctx, page, searchURL, s.Config.Search); err != nil {
		return nil, err
	}
	if err := sleep(ctx, s.Config.SearchSettle); err != nil {
		return nil, err
	}

	if s.Config.DismissConsent {
		out, err := page.Evaluate(ctx, consentScript)
		if err != nil {
			logger.Debug("consent check", "err", truncateErr(err))
		} else if string(out) == "true" {
			logger.Debug("consent dismissed")
			if err := sleep(ctx, s.Config.SearchSettle); err != nil {
				return nil, err
			}
		}
	}
	if s.Config.AutoScroll > 0 {
		if _, err := page.Evaluate(ctx, autoScrollScript, s.Config.AutoScroll.Milliseconds()); err != nil {
			logger.Warn("scrolling results", "err", truncateErr(err))
		}
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading search page: %w", err)
	}

	limit := max(s.Config.DiscoveryLimit, q.MaxResults)
	links, err := s.Links.DiscoverLinks(html, searchURL, limit)
	if err != nil {
		return nil, fmt.Errorf("discovering links: %w", err)
	}
	logger.Debug("links discovered", "url", searchURL, "count", len(links))
	return links, nil
}

// SearchURL returns the results page URL for q.
func (s *Scraper) SearchURL(q mapscrape.Query) string {
	base := s.Config.SearchURL
	if base == "" {
		base = DefaultSearchURL
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(q.SiteQuery())
}

func (s *Scraper) navigator(logger *slog.Logger) *Navigator {
	return &Navigator{Pacer: s.Pacer, Logger: logger}
}

func (s *Scraper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func sessionError(err error) error {
	if mapscrape.ErrorCode(err) == mapscrape.ESESSION {
		return err
	}
	return mapscrape.Errorf(mapscrape.ESESSION, "browser session unavailable: %s", truncateErr(err))
}
