// Package schedule decides when the next archiver iteration may start.
package schedule

import (
	"context"
	"time"
)

// Scheduler paces iterations. Wait blocks until the next iteration is due
// or ctx is cancelled, in which case it returns ctx.Err().
type Scheduler interface {
	Wait(ctx context.Context) error
	Stop()
}

// Ticker is a fixed-interval Scheduler backed by time.Ticker. Ticks are
// spaced one interval apart starting from NewTicker, independent of how long
// each iteration takes; a slow iteration absorbs missed ticks rather than
// queueing them.
type Ticker struct {
	t *time.Ticker
}

// NewTicker starts a Ticker with period d. d must be positive.
func NewTicker(d time.Duration) *Ticker {
	return &Ticker{t: time.NewTicker(d)}
}

// Wait blocks until the next tick.
func (t *Ticker) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.t.C:
		return nil
	}
}

// Stop releases the underlying ticker.
func (t *Ticker) Stop() {
	t.t.Stop()
}
