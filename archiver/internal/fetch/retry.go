package fetch

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

const (
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
)

// Retry wraps f so that a failed Fetch is attempted up to attempts times in
// total, sleeping with exponential backoff starting at delay between tries.
// Context cancellation ends the retries with the last error.
func Retry(f Fetcher, attempts int, delay time.Duration) Fetcher {
	if attempts <= 1 {
		return f
	}
	return &retrying{f: f, attempts: attempts, delay: delay}
}

type retrying struct {
	f        Fetcher
	attempts int
	delay    time.Duration
}

func (r *retrying) Fetch(ctx context.Context, level int, dir string) error {
	bo := newBackoff(r.delay)
	var err error
	for i := 1; i <= r.attempts; i++ {
		if err = r.f.Fetch(ctx, level, dir); err == nil {
			return nil
		}
		if i == r.attempts || ctx.Err() != nil {
			break
		}
		wait := bo.next()
		slog.Warn("fetch: attempt failed, will retry",
			"attempt", i, "attempts", r.attempts, "err", err, "retry_in", wait)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
	}
	return err
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff(initial time.Duration) *backoff {
	return &backoff{current: initial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// Apply ±25 % jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}
