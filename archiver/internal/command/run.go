package command

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/himawarilapse/himawarilapse/archiver/internal/archiver"
	"github.com/himawarilapse/himawarilapse/archiver/internal/config"
	"github.com/himawarilapse/himawarilapse/archiver/internal/encode"
	"github.com/himawarilapse/himawarilapse/archiver/internal/fetch"
	"github.com/himawarilapse/himawarilapse/archiver/internal/metrics"
	"github.com/himawarilapse/himawarilapse/archiver/internal/schedule"
)

// RunCommand returns the run command, which executes the archiver loop.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Archive the current snapshot a fixed number of times",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "number of iterations",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "wait between iterations",
			},
			&cli.IntFlag{
				Name:    "level",
				Aliases: []string{"l"},
				Usage:   "resolution level passed to the fetch tool (4, 8, 16, 20)",
			},
			&cli.StringFlag{
				Name:  "save-dir",
				Usage: "directory archived frames are written to",
			},
			&cli.StringFlag{
				Name:  "source-dir",
				Usage: "directory the fetch tool leaves its snapshot in",
			},
			&cli.BoolFlag{
				Name:  "fetch",
				Usage: "refresh the snapshot before each copy",
			},
			&cli.StringFlag{
				Name:  "metrics-textfile",
				Usage: "write Prometheus metrics to this .prom file after each iteration",
			},
			&cli.BoolFlag{
				Name:  "encode",
				Usage: "encode the archived frames into a video after the run",
			},
		},
		Action: runArchive,
	}
}

// runOverrides applies explicitly set run flags on top of cfg.
func runOverrides(c *cli.Context) func(*config.Config) {
	return func(cfg *config.Config) {
		a := &cfg.Archiver
		if c.IsSet("count") {
			a.Count = c.Int("count")
		}
		if c.IsSet("interval") {
			a.Interval = c.Duration("interval")
		}
		if c.IsSet("level") {
			a.Level = c.Int("level")
		}
		if c.IsSet("save-dir") {
			a.SaveDir = c.String("save-dir")
		}
		if c.IsSet("source-dir") {
			a.Source.Dir = c.String("source-dir")
		}
		if c.IsSet("fetch") {
			a.Fetch.Enabled = c.Bool("fetch")
		}
		if c.IsSet("metrics-textfile") {
			a.Metrics.Textfile = c.String("metrics-textfile")
		}
		if c.IsSet("encode") {
			cfg.Encoder.Enabled = c.Bool("encode")
		}
	}
}

func runArchive(c *cli.Context) error {
	cfg, err := loadConfig(c, runOverrides(c))
	if err != nil {
		return err
	}

	fetcher, err := fetch.New(cfg.Archiver.Fetch)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := ulid.Make().String()
	slog.Info("himawari-archiver starting",
		"run_id", runID,
		"config", c.String("config"),
		"count", cfg.Archiver.Count,
		"interval", cfg.Archiver.Interval,
		"level", cfg.Archiver.Level,
		"fetch_enabled", cfg.Archiver.Fetch.Enabled,
	)

	opts := archiver.Options{
		Out:     c.App.Writer,
		Fetcher: fetcher,
		RunID:   runID,
	}
	if path := cfg.Archiver.Metrics.Textfile; path != "" {
		opts.Metrics = &metrics.Textfile{Path: path}
	}

	ticker := schedule.NewTicker(cfg.Archiver.Interval)
	defer ticker.Stop()
	opts.Scheduler = ticker

	arch := archiver.New(cfg.Archiver, opts)

	// Hot-reload: only the settings Reconfigure accepts take effect mid-run.
	if path := c.String("config"); path != "" {
		go func() {
			err := config.Watch(ctx, path, func(updated *config.Config) {
				runOverrides(c)(updated)
				if err := updated.Finalize(); err != nil {
					slog.Error("config: reloaded config rejected after flag overrides", "err", err)
					return
				}
				arch.Reconfigure(updated.Archiver)
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	if _, err := arch.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("himawari-archiver shutting down", "run_id", runID)
			return nil
		}
		return err
	}

	if cfg.Encoder.Enabled {
		return encode.New(cfg.Encoder).Run(ctx, cfg.Archiver.SaveDir, frameExt(cfg.Archiver.Source.Pattern))
	}
	return nil
}
