package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/mapscrape"
)

// NavigatePolicy configures how a page is loaded: the retry budget, the
// per-attempt navigation timeout, and the readiness marker that must appear
// before the load counts as successful.
type NavigatePolicy struct {
	Retry         RetryPolicy
	Timeout       time.Duration
	WaitCondition mapscrape.WaitCondition
	ReadySelector string
	ReadyTimeout  time.Duration
}

// Navigator loads URLs into pages with bounded retries. It does not know
// what kind of page it loads; callers pass a policy per call site.
type Navigator struct {
	// Pacer, if set, spaces navigations to the same site.
	Pacer  mapscrape.NavigationPacer
	Logger *slog.Logger
}

// Navigate loads rawURL into page. Each attempt navigates with
// policy.Timeout and then waits up to policy.ReadyTimeout for
// policy.ReadySelector. Returns ENAVIGATION carrying the last attempt's
// error once the retry budget is spent.
func (n *Navigator) Navigate(ctx context.Context, page mapscrape.Page, rawURL string, policy NavigatePolicy) error {
	logger := loggerOrDiscard(n.Logger).With("url", rawURL)
	waitCondition := policy.WaitCondition
	if waitCondition == "" {
		waitCondition = mapscrape.WaitDOMContentLoaded
	}

	var attempts int
	err := Retry(ctx, policy.Retry, func(ctx context.Context, attempt int) error {
		attempts = attempt
		if n.Pacer != nil {
			if err := n.Pacer.Wait(ctx, rawURL); err != nil {
				return err
			}
		}
		if err := page.Navigate(ctx, rawURL, mapscrape.NavigateOptions{
			WaitCondition: waitCondition,
			Timeout:       policy.Timeout,
		}); err != nil {
			return err
		}
		if policy.ReadySelector != "" {
			if err := page.WaitForSelector(ctx, policy.ReadySelector, policy.ReadyTimeout); err != nil {
				return fmt.Errorf("waiting for %q: %w", policy.ReadySelector, err)
			}
		}
		return nil
	}, logger)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	logger.Warn("navigation failed", "attempts", attempts, "err", truncateErr(err))
	return mapscrape.Errorf(mapscrape.ENAVIGATION, "navigation to %s failed after %d attempts: %s",
		rawURL, attempts, truncateErr(err))
}

// PageSetup is applied to every page before it navigates.
type PageSetup struct {
	UserAgent      string
	AcceptLanguage string
	Width          int
	Height         int
}

// Apply configures page. Zero-valued settings are left at the browser's
// defaults.
func (s PageSetup) Apply(page mapscrape.Page) error {
	if s.UserAgent != "" || s.AcceptLanguage != "" {
		if err := page.SetUserAgent(s.UserAgent, s.AcceptLanguage); err != nil {
			return fmt.Errorf("setting user agent: %w", err)
		}
	}
	if s.Width > 0 && s.Height > 0 {
		if err := page.SetViewport(s.Width, s.Height); err != nil {
			return fmt.Errorf("setting viewport: %w", err)
		}
	}
	return nil
}
