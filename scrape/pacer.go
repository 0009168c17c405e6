package scrape

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/mapscrape"
	"golang.org/x/time/rate"
)

var _ mapscrape.NavigationPacer = (*HostPacer)(nil)

// HostPacer spaces navigations to each host. The search page and every
// detail page of a query share one host, so they draw from one budget: up to
// burst navigations start at once, then one more per interval. Setting burst
// to the batch concurrency lets a batch start together while consecutive
// batches stay spaced.
type HostPacer struct {
	interval time.Duration
	burst    int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewHostPacer returns a pacer allowing one navigation per interval per host
// after an initial burst. A burst below 1 counts as 1. An interval of zero or
// less disables pacing.
func NewHostPacer(interval time.Duration, burst int) *HostPacer {
	return &HostPacer{
		interval: interval,
		burst:    max(burst, 1),
		hosts:    make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a navigation to rawURL may start. Hosts compare
// case-insensitively and without port.
func (p *HostPacer) Wait(ctx context.Context, rawURL string) error {
	host, err := pacingHost(rawURL)
	if err != nil {
		return err
	}
	if p.interval <= 0 {
		return ctx.Err()
	}
	return p.limiter(host).Wait(ctx)
}

func (p *HostPacer) limiter(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.hosts[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(p.interval), p.burst)
		p.hosts[host] = l
	}
	return l
}

func pacingHost(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", mapscrape.Errorf(mapscrape.EINVALID, "unparseable navigation url: %s", truncateErr(err))
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", mapscrape.Errorf(mapscrape.EINVALID, "navigation url %q has no host", rawURL)
	}
	return host, nil
}
