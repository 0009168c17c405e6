package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/mapscrape"
	"golang.org/x/sync/errgroup"
)

// Outcome is the result of processing one link: either a record or an error.
type Outcome struct {
	Link   string
	Record *mapscrape.ListingRecord
	Err    error
}

// BatchOptions configures ProcessAll.
type BatchOptions struct {
	// Size is how many links run concurrently. Values below 1 mean 1.
	Size int
	// Pause separates consecutive batches.
	Pause time.Duration
	// Target stops scheduling new batches once this many links succeeded.
	// Zero processes every link.
	Target int
}

// ProcessFunc processes one link.
type ProcessFunc func(ctx context.Context, link string) (*mapscrape.ListingRecord, error)

// ProcessAll runs fn over links in batches of opts.Size. Every call in a
// batch finishes, successfully or not, before the next batch starts, and
// batches are separated by opts.Pause. Outcomes are returned in link order.
// A failing or panicking call never stops the other calls. Cancelling ctx
// stops scheduling further batches.
func ProcessAll(ctx context.Context, links []string, opts BatchOptions, fn ProcessFunc) []Outcome {
	size := opts.Size
	if size < 1 {
		size = 1
	}

	outcomes := make([]Outcome, 0, len(links))
	var succeeded int

	for start := 0; start < len(links); start += size {
		if opts.Target > 0 && succeeded >= opts.Target {
			break
		}
		if start > 0 {
			if err := sleep(ctx, opts.Pause); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		end := min(start+size, len(links))
		batch := make([]Outcome, end-start)

		var g errgroup.Group
		g.SetLimit(size)
		for i, link := range links[start:end] {
			g.Go(func() error {
				batch[i] = runOne(ctx, link, fn)
				return nil
			})
		}
		_ = g.Wait()

		for _, o := range batch {
			if o.Err == nil {
				succeeded++
			}
		}
		outcomes = append(outcomes, batch...)
	}

	return outcomes
}

func runOne(ctx context.Context, link string, fn ProcessFunc) (o Outcome) {
	o.Link = link
	defer func() {
		if r := recover(); r != nil {
			o.Record = nil
			o.Err = fmt.Errorf("panic processing listing: %v", r)
		}
	}()

	rec, err := fn(ctx, link)
	if err == nil && rec == nil {
		err = errors.New("no record extracted")
	}
	o.Record, o.Err = rec, err
	return o
}

// Successes returns the records of successful outcomes in order, at most
// limit of them when limit is positive. Failed links are logged and dropped.
func Successes(outcomes []Outcome, limit int, logger *slog.Logger) []mapscrape.ListingRecord {
	logger = loggerOrDiscard(logger)

	records := []mapscrape.ListingRecord{}
	for _, o := range outcomes {
		if o.Err != nil {
			logger.Warn("listing dropped",
				"url", o.Link,
				"code", mapscrape.ErrorCode(o.Err),
				"err", truncateErr(o.Err),
			)
			continue
		}
		if limit > 0 && len(records) >= limit {
			continue
		}
		records = append(records, *o.Record)
	}
	return records
}

// FilterByRating drops records whose rating parses below minRating. Records
// without a numeric rating are kept since they cannot be judged.
func FilterByRating(records []mapscrape.ListingRecord, minRating float64) []mapscrape.ListingRecord {
	out := make([]mapscrape.ListingRecord, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.RatingValue(); ok && v < minRating {
			continue
		}
		out = append(out, rec)
	}
	return out
}
