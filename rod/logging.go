package rod

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fwojciec/mapscrape"
)

// Ensure LoggingBrowser implements mapscrape.Browser.
var _ mapscrape.Browser = (*LoggingBrowser)(nil)

// LoggingBrowser wraps a Browser so that session lifetimes and page
// navigations are logged.
type LoggingBrowser struct {
	next   mapscrape.Browser
	logger *slog.Logger
}

// NewLoggingBrowser creates a new LoggingBrowser.
func NewLoggingBrowser(next mapscrape.Browser, logger *slog.Logger) *LoggingBrowser {
	return &LoggingBrowser{next: next, logger: logger}
}

// OpenSession logs the session opening and wraps the returned session.
func (b *LoggingBrowser) OpenSession(ctx context.Context) (session mapscrape.Session, err error) {
	defer func(begin time.Time) {
		b.logger.Debug("open session",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())

	session, err = b.next.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	return &loggingSession{next: session, logger: b.logger, opened: time.Now()}, nil
}

type loggingSession struct {
	next   mapscrape.Session
	logger *slog.Logger
	opened time.Time
	pages  atomic.Int32
}

func (s *loggingSession) NewPage(ctx context.Context) (mapscrape.Page, error) {
	page, err := s.next.NewPage(ctx)
	if err != nil {
		s.logger.Debug("new page", "err", err)
		return nil, err
	}
	s.pages.Add(1)
	return &loggingPage{Page: page, logger: s.logger}, nil
}

func (s *loggingSession) Close() (err error) {
	defer func() {
		s.logger.Debug("close session",
			"lifetime", time.Since(s.opened),
			"pages", s.pages.Load(),
			"err", err,
		)
	}()
	return s.next.Close()
}

// loggingPage logs navigations and delegates everything else.
type loggingPage struct {
	mapscrape.Page
	logger *slog.Logger
}

func (p *loggingPage) Navigate(ctx context.Context, url string, opts mapscrape.NavigateOptions) (err error) {
	defer func(begin time.Time) {
		p.logger.Debug("navigate",
			"url", url,
			"wait", opts.WaitCondition,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.Page.Navigate(ctx, url, opts)
}
