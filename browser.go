package mapscrape

import (
	"context"
	"time"
)

// WaitCondition names the page lifecycle event a navigation waits for.
type WaitCondition string

const (
	WaitDOMContentLoaded WaitCondition = "domcontentloaded"
	WaitLoad             WaitCondition = "load"
	WaitNetworkIdle      WaitCondition = "networkidle"
)

// NavigateOptions configures a single navigation attempt.
type NavigateOptions struct {
	WaitCondition WaitCondition
	Timeout       time.Duration
}

// Browser opens isolated browser sessions. Each query owns exactly one
// session for its lifetime.
type Browser interface {
	// OpenSession starts a new isolated session.
	// Returns ESESSION if the browser cannot provide one.
	OpenSession(ctx context.Context) (Session, error)
}

// Session is an isolated browsing context that hands out pages.
type Session interface {
	// NewPage opens a fresh page in the session.
	NewPage(ctx context.Context) (Page, error)

	// Close releases the session and every page still open in it.
	// Close is idempotent.
	Close() error
}

// Page is a single browser tab. A page is used by one goroutine at a time.
type Page interface {
	// Navigate loads url and waits for opts.WaitCondition within opts.Timeout.
	Navigate(ctx context.Context, url string, opts NavigateOptions) error

	// WaitForSelector blocks until an element matches selector or timeout passes.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error

	// Evaluate runs a JavaScript function expression in the page with args and
	// returns its result encoded as JSON.
	Evaluate(ctx context.Context, js string, args ...any) ([]byte, error)

	// HTML returns a snapshot of the rendered document.
	HTML(ctx context.Context) (string, error)

	// SetUserAgent overrides the user agent and Accept-Language header.
	SetUserAgent(userAgent, acceptLanguage string) error

	// SetViewport sets the page's layout size in CSS pixels.
	SetViewport(width, height int) error

	// Close releases the page. Close is idempotent and safe to call after
	// a failed navigation.
	Close() error
}

// NavigationPacer spaces out navigations to the same site.
type NavigationPacer interface {
	// Wait blocks until a navigation to rawURL may start. Returns an error
	// if the context ends first or rawURL names no host.
	Wait(ctx context.Context, rawURL string) error
}
