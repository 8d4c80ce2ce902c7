package fetch

import (
	"context"
	"fmt"

	"github.com/himawarilapse/himawarilapse/archiver/internal/config"
)

// Fetcher refreshes the snapshot that the archiver copies.
type Fetcher interface {
	// Fetch produces a snapshot at the given resolution level inside dir.
	Fetch(ctx context.Context, level int, dir string) error
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, level int, dir string) error

func (f FetcherFunc) Fetch(ctx context.Context, level int, dir string) error {
	return f(ctx, level, dir)
}

// Nop is a Fetcher that leaves the snapshot to be refreshed out-of-band.
type Nop struct{}

func (Nop) Fetch(context.Context, int, string) error { return nil }

// New returns the Fetcher for cfg.Kind wrapped in Retry.
// It does not consult cfg.Enabled; the archiver decides whether to call it.
func New(cfg config.FetchConfig) (Fetcher, error) {
	var f Fetcher
	switch cfg.Kind {
	case "exec":
		f = NewExec(cfg.Command, cfg.Args)
	case "http":
		h, err := NewHTTP(cfg)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		f = h
	default:
		return nil, fmt.Errorf("fetch: unsupported kind %q", cfg.Kind)
	}
	return Retry(f, cfg.Attempts, cfg.RetryDelay), nil
}
