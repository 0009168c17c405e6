package mock

import (
	"context"

	"github.com/fwojciec/mapscrape"
)

// Compile-time interface verification.
var (
	_ mapscrape.Scraper        = (*Scraper)(nil)
	_ mapscrape.ResultCache    = (*ResultCache)(nil)
	_ mapscrape.FieldExtractor = (*FieldExtractor)(nil)
	_ mapscrape.LinkDiscoverer = (*LinkDiscoverer)(nil)
)

// Scraper is a mock implementation of mapscrape.Scraper.
type Scraper struct {
	ScrapeFn func(ctx context.Context, q mapscrape.Query) (*mapscrape.ScrapeResult, error)
}

func (s *Scraper) Scrape(ctx context.Context, q mapscrape.Query) (*mapscrape.ScrapeResult, error) {
	return s.ScrapeFn(ctx, q)
}

// ResultCache is a mock implementation of mapscrape.ResultCache.
type ResultCache struct {
	LookupFn func(fingerprint string) (*mapscrape.ScrapeResult, bool)
	StoreFn  func(fingerprint string, result *mapscrape.ScrapeResult)
}

func (c *ResultCache) Lookup(fingerprint string) (*mapscrape.ScrapeResult, bool) {
	return c.LookupFn(fingerprint)
}

func (c *ResultCache) Store(fingerprint string, result *mapscrape.ScrapeResult) {
	c.StoreFn(fingerprint, result)
}

// FieldExtractor is a mock implementation of mapscrape.FieldExtractor.
type FieldExtractor struct {
	ExtractListingFn func(html, link string, opts mapscrape.ExtractOptions) (*mapscrape.ListingRecord, error)
}

func (e *FieldExtractor) ExtractListing(html, link string, opts mapscrape.ExtractOptions) (*mapscrape.ListingRecord, error) {
	return e.ExtractListingFn(html, link, opts)
}

// LinkDiscoverer is a mock implementation of mapscrape.LinkDiscoverer.
type LinkDiscoverer struct {
	DiscoverLinksFn func(html, baseURL string, max int) ([]string, error)
}

func (d *LinkDiscoverer) DiscoverLinks(html, baseURL string, max int) ([]string, error) {
	return d.DiscoverLinksFn(html, baseURL, max)
}
