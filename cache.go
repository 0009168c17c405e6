package mapscrape

import "context"

// ResultCache maps query fingerprints to completed results. Lookups past an
// entry's expiry behave as misses. Implementations must be safe for
// concurrent use; the last Store for a fingerprint wins.
type ResultCache interface {
	// Lookup returns a copy of the cached result for fingerprint.
	Lookup(fingerprint string) (*ScrapeResult, bool)

	// Store caches a copy of result under fingerprint, replacing any entry.
	Store(fingerprint string, result *ScrapeResult)
}

// Scraper answers queries.
type Scraper interface {
	// Scrape runs q and returns its result. Returns EINVALID for bad input,
	// ENAVIGATION if the search page cannot be loaded and ESESSION if no
	// browser session is available.
	Scrape(ctx context.Context, q Query) (*ScrapeResult, error)
}
