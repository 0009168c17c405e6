package mock

import (
	"context"
	"time"

	"github.com/fwojciec/mapscrape"
)

// Compile-time interface verification.
var (
	_ mapscrape.Browser         = (*Browser)(nil)
	_ mapscrape.Session         = (*Session)(nil)
	_ mapscrape.Page            = (*Page)(nil)
	_ mapscrape.NavigationPacer = (*NavigationPacer)(nil)
)

// Browser is a mock implementation of mapscrape.Browser.
type Browser struct {
	OpenSessionFn func(ctx context.Context) (mapscrape.Session, error)
}

func (b *Browser) OpenSession(ctx context.Context) (mapscrape.Session, error) {
	return b.OpenSessionFn(ctx)
}

// Session is a mock implementation of mapscrape.Session.
type Session struct {
	NewPageFn func(ctx context.Context) (mapscrape.Page, error)
	CloseFn   func() error
}

func (s *Session) NewPage(ctx context.Context) (mapscrape.Page, error) {
	return s.NewPageFn(ctx)
}

func (s *Session) Close() error {
	return s.CloseFn()
}

// Page is a mock implementation of mapscrape.Page.
type Page struct {
	NavigateFn        func(ctx context.Context, url string, opts mapscrape.NavigateOptions) error
	WaitForSelectorFn func(ctx context.Context, selector string, timeout time.Duration) error
	EvaluateFn        func(ctx context.Context, js string, args ...any) ([]byte, error)
	HTMLFn            func(ctx context.Context) (string, error)
	SetUserAgentFn    func(userAgent, acceptLanguage string) error
	SetViewportFn     func(width, height int) error
	CloseFn           func() error
}

func (p *Page) Navigate(ctx context.Context, url string, opts mapscrape.NavigateOptions) error {
	return p.NavigateFn(ctx, url, opts)
}

func (p *Page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	return p.WaitForSelectorFn(ctx, selector, timeout)
}

func (p *Page) Evaluate(ctx context.Context, js string, args ...any) ([]byte, error) {
	return p.EvaluateFn(ctx, js, args...)
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.HTMLFn(ctx)
}

func (p *Page) SetUserAgent(userAgent, acceptLanguage string) error {
	return p.SetUserAgentFn(userAgent, acceptLanguage)
}

func (p *Page) SetViewport(width, height int) error {
	return p.SetViewportFn(width, height)
}

func (p *Page) Close() error {
	return p.CloseFn()
}

// NavigationPacer is a mock implementation of mapscrape.NavigationPacer.
type NavigationPacer struct {
	WaitFn func(ctx context.Context, rawURL string) error
}

func (p *NavigationPacer) Wait(ctx context.Context, rawURL string) error {
	return p.WaitFn(ctx, rawURL)
}
