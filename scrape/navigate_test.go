package scrape_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/mapscrape"
	"github.com/fwojciec/mapscrape/mock"
	"github.com/fwojciec/mapscrape/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const placeURL = "https://www.google.com/maps/place/Padaria+Real"

func policy(attempts int) scrape.NavigatePolicy {
	return scrape.NavigatePolicy{
		Retry:         scrape.RetryPolicy{Attempts: attempts},
		Timeout:       25 * time.Second,
		ReadySelector: "h1",
		ReadyTimeout:  5 * time.Second,
	}
}

func TestNavigator_Navigate(t *testing.T) {
	t.Parallel()

	t.Run("navigates and waits for the readiness marker", func(t *testing.T) {
		t.Parallel()

		var gotOpts mapscrape.NavigateOptions
		var gotSelector string
		page := &mock.Page{
			NavigateFn: func(ctx context.Context, url string, opts mapscrape.NavigateOptions) error {
				gotOpts = opts
				return nil
			},
			WaitForSelectorFn: func(ctx context.Context, selector string, timeout time.Duration) error {
				gotSelector = selector
				return nil
			},
		}

		n := &scrape.Navigator{}
		err := n.Navigate(context.Background(), page, placeURL, policy(2))

		require.NoError(t, err)
		assert.Equal(t, mapscrape.WaitDOMContentLoaded, gotOpts.WaitCondition)
		assert.Equal(t, 25*time.Second, gotOpts.Timeout)
		assert.Equal(t, "h1", gotSelector)
	})

	t.Run("retries when the readiness marker never appears", func(t *testing.T) {
		t.Parallel()

		var navigations int
		page := &mock.Page{
			NavigateFn: func(ctx context.Context, url string, opts mapscrape.NavigateOptions) error {
				navigations++
				return nil
			},
			WaitForSelectorFn: func(ctx context.Context, selector string, timeout time.Duration) error {
				if navigations < 2 {
					return context.DeadlineExceeded
				}
				return nil
			},
		}

		err := (&scrape.Navigator{}).Navigate(context.Background(), page, placeURL, policy(3))

		require.NoError(t, err)
		assert.Equal(t, 2, navigations)
	})

	t.Run("fails with the last error once attempts are exhausted", func(t *testing.T) {
		t.Parallel()

		var navigations int
		page := &mock.Page{
			NavigateFn: func(ctx context.Context, url string, opts mapscrape.NavigateOptions) error {
				navigations++
				if navigations == 3 {
					return errors.New("net::ERR_CONNECTION_RESET")
				}
				return errors.New("net::ERR_TIMED_OUT")
			},
		}

		err := (&scrape.Navigator{}).Navigate(context.Background(), page, placeURL, policy(3))

		assert.Equal(t, 3, navigations)
		assert.Equal(t, mapscrape.ENAVIGATION, mapscrape.ErrorCode(err))
		assert.Contains(t, mapscrape.ErrorMessage(err), "after 3 attempts")
		assert.Contains(t, mapscrape.ErrorMessage(err), "ERR_CONNECTION_RESET")
	})

	t.Run("waits on the pacer before every attempt", func(t *testing.T) {
		t.Parallel()

		var urls []string
		pacer := &mock.NavigationPacer{
			WaitFn: func(ctx context.Context, rawURL string) error {
				urls = append(urls, rawURL)
				return nil
			},
		}
		var calls int
		page := &mock.Page{
			NavigateFn: func(ctx context.Context, url string, opts mapscrape.NavigateOptions) error {
				calls++
				if calls == 1 {
					return errors.New("net::ERR_CONNECTION_RESET")
				}
				return nil
			},
		}

		p := policy(2)
		p.ReadySelector = ""
		err := (&scrape.Navigator{Pacer: pacer}).Navigate(context.Background(), page, placeURL, p)

		require.NoError(t, err)
		assert.Equal(t, []string{placeURL, placeURL}, urls)
	})

	t.Run("fails the navigation when the pacer rejects the url", func(t *testing.T) {
		t.Parallel()

		pacer := scrape.NewHostPacer(time.Second, 1)
		navigated := false
		page := &mock.Page{
			NavigateFn: func(ctx context.Context, url string, opts mapscrape.NavigateOptions) error {
				navigated = true
				return nil
			},
		}

		err := (&scrape.Navigator{Pacer: pacer}).Navigate(context.Background(), page, "/maps/place/relative", policy(1))

		assert.Equal(t, mapscrape.ENAVIGATION, mapscrape.ErrorCode(err))
		assert.False(t, navigated)
	})

	t.Run("returns the context error when canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		page := &mock.Page{
			NavigateFn: func(ctx context.Context, url string, opts mapscrape.NavigateOptions) error {
				cancel()
				return ctx.Err()
			},
		}

		err := (&scrape.Navigator{}).Navigate(ctx, page, placeURL, policy(3))

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPageSetup_Apply(t *testing.T) {
	t.Parallel()

	t.Run("sets user agent and viewport", func(t *testing.T) {
		t.Parallel()

		var ua, lang string
		var w, h int
		page := &mock.Page{
			SetUserAgentFn: func(userAgent, acceptLanguage string) error {
				ua, lang = userAgent, acceptLanguage
				return nil
			},
			SetViewportFn: func(width, height int) error {
				w, h = width, height
				return nil
			},
		}

		setup := scrape.DefaultConfig().Page
		require.NoError(t, setup.Apply(page))

		assert.Contains(t, ua, "Mozilla/5.0")
		assert.Equal(t, "pt-BR,pt;q=0.9,en;q=0.8", lang)
		assert.Equal(t, 1920, w)
		assert.Equal(t, 1080, h)
	})

	t.Run("skips unset values", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, scrape.PageSetup{}.Apply(&mock.Page{}))
	})

	t.Run("reports failures", func(t *testing.T) {
		t.Parallel()

		page := &mock.Page{
			SetUserAgentFn: func(string, string) error { return errors.New("target closed") },
		}

		err := scrape.PageSetup{UserAgent: "x"}.Apply(page)

		assert.ErrorContains(t, err, "target closed")
	})
}
