package scrape

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy bounds how often an operation is attempted and how long to
// wait between attempts. A Multiplier above 1 grows the delay after each
// failure; otherwise the delay is fixed.
type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	Multiplier float64
}

// DefaultRetryPolicy returns three attempts with a fixed 2s backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 2 * time.Second}
}

// Delays returns the pause before each retry. Its length is one less than
// the number of attempts; at least one attempt is always made.
func (p RetryPolicy) Delays() []time.Duration {
	n := p.Attempts - 1
	if n < 0 {
		n = 0
	}
	delays := make([]time.Duration, n)
	d := p.Backoff
	for i := range delays {
		delays[i] = d
		if p.Multiplier > 1 {
			d = time.Duration(float64(d) * p.Multiplier)
		}
	}
	return delays
}

// AttemptFunc performs one attempt. Attempts are numbered from 1.
type AttemptFunc func(ctx context.Context, attempt int) error

// Retry calls fn until it succeeds or the policy's attempts are used up and
// returns the last error. Context cancellation stops retrying and returns the
// context's error.
func Retry(ctx context.Context, policy RetryPolicy, fn AttemptFunc, logger *slog.Logger) error {
	logger = loggerOrDiscard(logger)
	delays := policy.Delays()
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Warn("retrying",
			"attempt", attempt+1,
			"of", maxAttempts,
			"backoff", delays[attempt-1],
			"err", truncateErr(err),
		)

		if err := sleep(ctx, delays[attempt-1]); err != nil {
			return err
		}
	}

	return lastErr
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
