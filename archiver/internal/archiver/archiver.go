package archiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/himawarilapse/himawarilapse/archiver/internal/config"
	"github.com/himawarilapse/himawarilapse/archiver/internal/fetch"
	"github.com/himawarilapse/himawarilapse/archiver/internal/frame"
	"github.com/himawarilapse/himawarilapse/archiver/internal/schedule"
	"github.com/himawarilapse/himawarilapse/archiver/internal/stats"
)

// MetricsWriter receives the run statistics after every iteration.
type MetricsWriter interface {
	Write(snap stats.Snapshot, runID string) error
}

// Options carries the collaborators of an Archiver. Zero fields get defaults:
// io.Discard, fetch.Nop, no metrics and time.Now. Scheduler is required.
type Options struct {
	Out       io.Writer
	Fetcher   fetch.Fetcher
	Scheduler schedule.Scheduler
	Metrics   MetricsWriter
	Now       func() time.Time
	RunID     string
}

// tunables is the part of the configuration that may change mid-run.
type tunables struct {
	fetchEnabled bool
	level        int
	fetchTimeout time.Duration
	maxAge       time.Duration
}

// Archiver copies the current snapshot into a timestamped history a fixed
// number of times.
type Archiver struct {
	count   int
	saveDir string
	source  config.SourceConfig

	out     io.Writer
	fetcher fetch.Fetcher
	sched   schedule.Scheduler
	metrics MetricsWriter
	now     func() time.Time // injectable for deterministic tests
	runID   string
	stats   *stats.Tracker

	mu  sync.Mutex
	tun tunables
}

// New returns an Archiver for cfg. cfg must already be validated.
func New(cfg config.ArchiverConfig, opts Options) *Archiver {
	a := &Archiver{
		count:   cfg.Count,
		saveDir: cfg.SaveDir,
		source:  cfg.Source,
		out:     opts.Out,
		fetcher: opts.Fetcher,
		sched:   opts.Scheduler,
		metrics: opts.Metrics,
		now:     opts.Now,
		runID:   opts.RunID,
		stats:   stats.NewTracker(),
		tun:     tunablesOf(cfg),
	}
	if a.out == nil {
		a.out = io.Discard
	}
	if a.fetcher == nil {
		a.fetcher = fetch.Nop{}
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

func tunablesOf(cfg config.ArchiverConfig) tunables {
	return tunables{
		fetchEnabled: cfg.Fetch.Enabled,
		level:        cfg.Level,
		fetchTimeout: cfg.Fetch.Timeout,
		maxAge:       cfg.Retention.MaxAge,
	}
}

// Reconfigure applies the hot-reloadable settings of cfg (fetch toggle,
// level, fetch timeout, retention). It takes effect from the next iteration.
// Count, interval and directories are fixed for the lifetime of a run.
func (a *Archiver) Reconfigure(cfg config.ArchiverConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tun = tunablesOf(cfg)
	slog.Info("archiver: reconfigured",
		"fetch_enabled", a.tun.fetchEnabled,
		"level", a.tun.level,
		"retention", a.tun.maxAge,
	)
}

func (a *Archiver) current() tunables {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tun
}

// Stats returns the counters accumulated so far.
func (a *Archiver) Stats() stats.Snapshot {
	return a.stats.Snapshot()
}

// Run performs the configured number of iterations. Each iteration writes
// its 1-based index on its own line to Out, refreshes the snapshot when
// fetching is enabled, and archives it. Iteration failures are logged and
// counted but never end the run. Between iterations Run waits on the
// Scheduler; there is no wait after the last one.
//
// Run returns early with ctx.Err() when ctx is cancelled.
func (a *Archiver) Run(ctx context.Context) (stats.Snapshot, error) {
	slog.Info("archiver: run starting",
		"run_id", a.runID,
		"count", a.count,
		"save_dir", a.saveDir,
		"source_dir", a.source.Dir,
	)

	for i := 1; i <= a.count; i++ {
		if err := ctx.Err(); err != nil {
			return a.stats.Snapshot(), err
		}

		if _, err := fmt.Fprintln(a.out, i); err != nil {
			slog.Warn("archiver: could not write iteration marker", "iteration", i, "err", err)
		}

		outcome := a.iterate(ctx, i)
		a.stats.Record(outcome, a.now())
		a.writeMetrics()

		if i == a.count {
			break
		}
		if err := a.sched.Wait(ctx); err != nil {
			slog.Info("archiver: run interrupted", "run_id", a.runID, "iteration", i)
			return a.stats.Snapshot(), err
		}
	}

	snap := a.stats.Snapshot()
	slog.Info("archiver: run finished",
		"run_id", a.runID,
		"iterations", snap.Iterations,
		"archived", snap.Archived,
		"fetch_failed", snap.FetchFailed,
		"copy_failed", snap.CopyFailed,
	)
	return snap, nil
}

// iterate runs one fetch + copy cycle and reports how it ended.
func (a *Archiver) iterate(ctx context.Context, i int) stats.Outcome {
	tun := a.current()

	if tun.fetchEnabled {
		if err := a.fetch(ctx, tun); err != nil {
			slog.Warn("archiver: fetch failed, skipping frame",
				"iteration", i, "level", tun.level, "err", err)
			return stats.FetchFailed
		}
	}

	src, err := frame.Latest(a.source.Dir, a.source.Pattern)
	if err != nil {
		slog.Warn("archiver: no snapshot to archive", "iteration", i, "err", err)
		return stats.CopyFailed
	}

	now := a.now()
	dst := filepath.Join(a.saveDir, frame.Name(now, filepath.Ext(src)))
	if err := frame.Copy(src, dst); err != nil {
		slog.Warn("archiver: copy failed", "iteration", i, "src", src, "dst", dst, "err", err)
		return stats.CopyFailed
	}
	slog.Info("archiver: frame archived", "iteration", i, "src", src, "dst", dst)

	if tun.maxAge > 0 {
		removed, err := frame.Prune(a.saveDir, tun.maxAge, now)
		if err != nil {
			slog.Warn("archiver: prune failed", "err", err)
		}
		if len(removed) > 0 {
			slog.Info("archiver: pruned old frames", "removed", len(removed))
		}
	}
	return stats.Archived
}

func (a *Archiver) fetch(ctx context.Context, tun tunables) error {
	if tun.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tun.fetchTimeout)
		defer cancel()
	}
	err := a.fetcher.Fetch(ctx, tun.level, a.source.Dir)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("fetch exceeded %v: %w", tun.fetchTimeout, err)
	}
	return err
}

func (a *Archiver) writeMetrics() {
	if a.metrics == nil {
		return
	}
	if err := a.metrics.Write(a.stats.Snapshot(), a.runID); err != nil {
		slog.Warn("archiver: metrics write failed", "err", err)
	}
}
