package rod

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/fwojciec/mapscrape"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Compile-time interface verification.
var (
	_ mapscrape.Session = (*Session)(nil)
	_ mapscrape.Page    = (*Page)(nil)
)

// Session is an incognito browser context. Closing it disposes the context
// and every page still open in it.
type Session struct {
	browser *rod.Browser
	manager *BrowserManager
	closed  atomic.Bool
}

// NewPage opens a blank page in the session.
func (s *Session) NewPage(ctx context.Context) (mapscrape.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, errors.New("session is closed")
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	if s.manager != nil {
		s.manager.IncrementPageCount()
	}
	return &Page{page: page}, nil
}

// Close disposes the browser context. Close is idempotent.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.browser.Close()
	if s.manager != nil {
		s.manager.release()
	}
	return err
}

// Page wraps a rod page.
type Page struct {
	page   *rod.Page
	closed atomic.Bool
}

// Navigate loads url and waits for the lifecycle event matching
// opts.WaitCondition. opts.Timeout bounds both steps.
func (p *Page) Navigate(ctx context.Context, url string, opts mapscrape.NavigateOptions) error {
	page := p.page.Context(ctx)
	if opts.Timeout > 0 {
		page = page.Timeout(opts.Timeout)
		defer page.CancelTimeout()
	}

	wait := page.WaitNavigation(lifecycleEvent(opts.WaitCondition))
	if err := page.Navigate(url); err != nil {
		return err
	}
	wait()

	return page.GetContext().Err()
}

// WaitForSelector waits up to timeout for an element matching selector.
func (p *Page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	page := p.page.Context(ctx)
	if timeout > 0 {
		page = page.Timeout(timeout)
		defer page.CancelTimeout()
	}
	_, err := page.Element(selector)
	return err
}

// Evaluate runs the function expression js with args and returns its
// JSON-encoded result. Promises are awaited.
func (p *Page) Evaluate(ctx context.Context, js string, args ...any) ([]byte, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return nil, err
	}
	return []byte(res.Value.JSON("", "")), nil
}

// HTML returns the rendered document.
func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

// SetUserAgent overrides the user agent and Accept-Language header. With an
// empty userAgent only the header is changed.
func (p *Page) SetUserAgent(userAgent, acceptLanguage string) error {
	if userAgent == "" {
		_, err := p.page.SetExtraHeaders([]string{"Accept-Language", acceptLanguage})
		return err
	}
	return p.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      userAgent,
		AcceptLanguage: acceptLanguage,
	})
}

// SetViewport sets the layout viewport in CSS pixels.
func (p *Page) SetViewport(width, height int) error {
	return p.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

// Close closes the page. Close is idempotent.
func (p *Page) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.page.Close()
}

func lifecycleEvent(c mapscrape.WaitCondition) proto.PageLifecycleEventName {
	switch c {
	case mapscrape.WaitLoad:
		return proto.PageLifecycleEventNameLoad
	case mapscrape.WaitNetworkIdle:
		return proto.PageLifecycleEventNameNetworkAlmostIdle
	default:
		return proto.PageLifecycleEventNameDOMContentLoaded
	}
}
