package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/mapscrape"
)

// Processor drives one detail page from open to close: navigate, let the
// page settle, snapshot its HTML and extract a record.
type Processor struct {
	Navigator *Navigator
	Extractor mapscrape.FieldExtractor
	Policy    NavigatePolicy
	Setup     PageSetup
	Settle    time.Duration
	Logger    *slog.Logger
}

// Process extracts the listing at link using a fresh page from session. The
// page is closed before Process returns, whatever the outcome. Errors are
// returned, not retried; retries happen inside the Navigator.
func (p *Processor) Process(ctx context.Context, session mapscrape.Session, link string, opts mapscrape.ExtractOptions) (*mapscrape.ListingRecord, error) {
	logger := loggerOrDiscard(p.Logger)

	page, err := session.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn("closing page", "url", link, "err", truncateErr(err))
		}
	}()

	if err := p.Setup.Apply(page); err != nil {
		return nil, err
	}
	if err := p.Navigator.Navigate(ctx, page, link, p.Policy); err != nil {
		return nil, err
	}
	if err := sleep(ctx, p.Settle); err != nil {
		return nil, err
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}

	rec, err := p.Extractor.ExtractListing(html, link, opts)
	if err != nil {
		return nil, fmt.Errorf("extracting listing: %w", err)
	}
	rec.SourceLink = link
	return rec, nil
}
