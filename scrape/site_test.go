package scrape_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/mapscrape"
	"github.com/fwojciec/mapscrape/goquery"
	"github.com/fwojciec/mapscrape/mock"
	"github.com/fwojciec/mapscrape/scrape"
	"github.com/fwojciec/mapscrape/yaml"
)

// fakeSite serves canned HTML to mock pages and records how the scraper
// used them.
type fakeSite struct {
	mu      sync.Mutex
	pages   map[string]string
	failing map[string]bool

	// navDelay is spent inside every navigation to make overlap observable.
	navDelay time.Duration

	sessionsOpened atomic.Int32
	sessionsClosed atomic.Int32
	pagesOpened    atomic.Int32
	pagesClosed    atomic.Int32
	openPages      atomic.Int32
	highWater      atomic.Int32
	navigations    atomic.Int32
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		pages:   make(map[string]string),
		failing: make(map[string]bool),
	}
}

func (f *fakeSite) serve(url, html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = html
}

func (f *fakeSite) fail(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[url] = true
}

func (f *fakeSite) lookup(url string) (string, bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	html, ok := f.pages[url]
	return html, ok, f.failing[url]
}

func (f *fakeSite) browser() *mock.Browser {
	return &mock.Browser{
		OpenSessionFn: func(ctx context.Context) (mapscrape.Session, error) {
			f.sessionsOpened.Add(1)
			var once sync.Once
			return &mock.Session{
				NewPageFn: func(ctx context.Context) (mapscrape.Page, error) {
					return f.newPage(), nil
				},
				CloseFn: func() error {
					once.Do(func() { f.sessionsClosed.Add(1) })
					return nil
				},
			}, nil
		},
	}
}

func (f *fakeSite) newPage() *mock.Page {
	f.pagesOpened.Add(1)
	n := f.openPages.Add(1)
	for {
		hw := f.highWater.Load()
		if n <= hw || f.highWater.CompareAndSwap(hw, n) {
			break
		}
	}

	var current string
	var closed atomic.Bool
	return &mock.Page{
		NavigateFn: func(ctx context.Context, url string, opts mapscrape.NavigateOptions) error {
			f.navigations.Add(1)
			if f.navDelay > 0 {
				time.Sleep(f.navDelay)
			}
			_, ok, failing := f.lookup(url)
			if failing {
				return fmt.Errorf("net::ERR_TIMED_OUT loading %s", url)
			}
			if !ok {
				return errors.New("net::ERR_NAME_NOT_RESOLVED")
			}
			current = url
			return nil
		},
		WaitForSelectorFn: func(ctx context.Context, selector string, timeout time.Duration) error {
			return nil
		},
		EvaluateFn: func(ctx context.Context, js string, args ...any) ([]byte, error) {
			return []byte("false"), nil
		},
		HTMLFn: func(ctx context.Context) (string, error) {
			html, _, _ := f.lookup(current)
			return html, nil
		},
		SetUserAgentFn: func(userAgent, acceptLanguage string) error { return nil },
		SetViewportFn:  func(width, height int) error { return nil },
		CloseFn: func() error {
			if closed.CompareAndSwap(false, true) {
				f.pagesClosed.Add(1)
				f.openPages.Add(-1)
			}
			return nil
		},
	}
}

// listing serves n detail pages and a search page linking to them for term.
// It returns the detail URLs in the order the search page lists them.
func (f *fakeSite) listing(s *scrape.Scraper, q mapscrape.Query, n int, rating func(i int) string) []string {
	var b strings.Builder
	b.WriteString(`<div role="feed">`)
	links := make([]string, n)
	for i := range n {
		links[i] = fmt.Sprintf("https://www.google.com/maps/place/Padaria+%d/data=%d", i, i)
		fmt.Fprintf(&b, `<div class="Nv2PK"><a class="hfpxzc" href="%s">Padaria %d</a></div>`, links[i], i)
		f.serve(links[i], fmt.Sprintf(
			`<h1 class="DUwDvf">Padaria %d</h1><span class="MW4etd">%s</span><button class="DkEaL">Padaria</button>`,
			i, rating(i)))
	}
	b.WriteString(`</div>`)
	f.serve(s.SearchURL(q.Normalize()), b.String())
	return links
}

// testConfig is the production config with every delay removed.
func testConfig() scrape.Config {
	cfg := scrape.DefaultConfig()
	cfg.Search.Retry = scrape.RetryPolicy{Attempts: 2}
	cfg.Detail.Retry = scrape.RetryPolicy{Attempts: 2}
	cfg.SearchSettle = 0
	cfg.DetailSettle = 0
	cfg.BatchPause = 0
	cfg.AutoScroll = 0
	return cfg
}

func newScraper(site *fakeSite, cache mapscrape.ResultCache) *scrape.Scraper {
	table := yaml.DefaultSelectorTable()
	return &scrape.Scraper{
		Browser:   site.browser(),
		Cache:     cache,
		Extractor: goquery.NewExtractor(table),
		Links:     goquery.NewLinkDiscoverer(table),
		Config:    testConfig(),
	}
}

func fixedRating(r string) func(int) string {
	return func(int) string { return r }
}
