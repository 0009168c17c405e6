//go:build integration

package rod_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/mapscrape"
	"github.com/fwojciec/mapscrape/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/slow":
			time.Sleep(2 * time.Second)
		case "/lang":
			fmt.Fprintf(w, `<html><body><h1>%s</h1></body></html>`, r.Header.Get("Accept-Language"))
			return
		}
		fmt.Fprint(w, `<html><body><div role="main"><h1 class="DUwDvf">Padaria Real</h1></div>
<script>document.body.insertAdjacentHTML('beforeend', '<p id="late">rendered</p>')</script></body></html>`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBrowserManager_Integration(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithNoSandbox(true))
	require.NoError(t, err)
	defer manager.Close()

	srv := newSite(t)
	ctx := context.Background()

	t.Run("navigates and reads rendered html", func(t *testing.T) {
		session, err := manager.OpenSession(ctx)
		require.NoError(t, err)
		defer session.Close()

		page, err := session.NewPage(ctx)
		require.NoError(t, err)
		defer page.Close()

		err = page.Navigate(ctx, srv.URL+"/place", mapscrape.NavigateOptions{Timeout: 10 * time.Second})
		require.NoError(t, err)
		require.NoError(t, page.WaitForSelector(ctx, "#late", 5*time.Second))

		html, err := page.HTML(ctx)
		require.NoError(t, err)
		assert.Contains(t, html, "Padaria Real")
		assert.Contains(t, html, "rendered")
	})

	t.Run("evaluates scripts and returns json", func(t *testing.T) {
		session, err := manager.OpenSession(ctx)
		require.NoError(t, err)
		defer session.Close()

		page, err := session.NewPage(ctx)
		require.NoError(t, err)
		defer page.Close()

		out, err := page.Evaluate(ctx, `(a, b) => a + b`, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, "5", string(out))
	})

	t.Run("applies user agent and accept language", func(t *testing.T) {
		session, err := manager.OpenSession(ctx)
		require.NoError(t, err)
		defer session.Close()

		page, err := session.NewPage(ctx)
		require.NoError(t, err)
		defer page.Close()

		require.NoError(t, page.SetUserAgent("mapscrape-test", "pt-BR"))
		require.NoError(t, page.SetViewport(1280, 720))
		require.NoError(t, page.Navigate(ctx, srv.URL+"/lang", mapscrape.NavigateOptions{Timeout: 10 * time.Second}))

		html, err := page.HTML(ctx)
		require.NoError(t, err)
		assert.Contains(t, html, "pt-BR")
	})

	t.Run("times out slow navigations", func(t *testing.T) {
		session, err := manager.OpenSession(ctx)
		require.NoError(t, err)
		defer session.Close()

		page, err := session.NewPage(ctx)
		require.NoError(t, err)

		err = page.Navigate(ctx, srv.URL+"/slow", mapscrape.NavigateOptions{Timeout: 300 * time.Millisecond})
		assert.Error(t, err)

		// closing after a failed navigation is safe and idempotent
		assert.NoError(t, page.Close())
		assert.NoError(t, page.Close())
	})

	t.Run("closing a session twice is safe", func(t *testing.T) {
		session, err := manager.OpenSession(ctx)
		require.NoError(t, err)

		assert.NoError(t, session.Close())
		assert.NoError(t, session.Close())
		assert.Equal(t, 0, manager.ActiveSessions())
	})
}

func TestBrowserManager_RecyclesOnlyWhenIdle(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(2), rod.WithNoSandbox(true))
	require.NoError(t, err)
	defer manager.Close()

	ctx := context.Background()
	firstPID := manager.LauncherPID()

	session, err := manager.OpenSession(ctx)
	require.NoError(t, err)
	for range 2 {
		page, err := session.NewPage(ctx)
		require.NoError(t, err)
		require.NoError(t, page.Close())
	}

	// an active session pins the current process
	other, err := manager.OpenSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, firstPID, manager.LauncherPID())
	require.NoError(t, other.Close())
	require.NoError(t, session.Close())

	idle, err := manager.OpenSession(ctx)
	require.NoError(t, err)
	defer idle.Close()
	assert.NotEqual(t, firstPID, manager.LauncherPID())
}

func TestBrowserManager_ClosedManagerRefusesSessions(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithNoSandbox(true))
	require.NoError(t, err)
	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())

	_, err = manager.OpenSession(context.Background())

	assert.Equal(t, mapscrape.ESESSION, mapscrape.ErrorCode(err))
}

func TestBrowserManager_CloseRacingOpenSession(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithNoSandbox(true))
	require.NoError(t, err)

	ctx := context.Background()
	errs := make(chan error, 8)
	for range 8 {
		go func() {
			session, err := manager.OpenSession(ctx)
			if err == nil {
				// the context may already be disposed with the browser
				_ = session.Close()
			}
			errs <- err
		}()
	}
	require.NoError(t, manager.Close())

	for range 8 {
		if err := <-errs; err != nil {
			assert.Equal(t, mapscrape.ESESSION, mapscrape.ErrorCode(err))
		}
	}
	assert.Zero(t, manager.LauncherPID(), "no browser may be launched after Close")
}
