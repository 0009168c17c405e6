package main

import (
	"context"
	"time"

	mhttp "github.com/fwojciec/mapscrape/http"
)

// Run executes the serve command. It blocks until the context is cancelled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	opts := []mhttp.Option{
		mhttp.WithLogger(deps.Logger),
		mhttp.WithAllowedOrigins(c.CORSOrigins...),
	}

	if deps.Browser != nil {
		opts = append(opts, mhttp.WithBrowser(deps.Browser))
	}

	ctx, cancel := context.WithCancel(deps.Ctx)
	defer cancel()

	if deps.Cache != nil {
		opts = append(opts, mhttp.WithCacheLen(deps.Cache.Len))
		go sweepCache(ctx, deps, deps.Cache.TTL()/2)
	}

	return mhttp.NewServer(deps.Scraper, opts...).ListenAndServe(ctx, c.Addr)
}

// sweepCache drops expired results every interval until ctx is done.
func sweepCache(ctx context.Context, deps *Dependencies, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := deps.Cache.Sweep(); n > 0 {
				deps.Logger.Debug("cache sweep", "removed", n, "remaining", deps.Cache.Len())
			}
		}
	}
}
