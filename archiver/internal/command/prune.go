package command

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/himawarilapse/himawarilapse/archiver/internal/config"
	"github.com/himawarilapse/himawarilapse/archiver/internal/frame"
)

// PruneCommand returns the prune command, which deletes old frames once.
func PruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Delete archived frames older than a given age",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:     "max-age",
				Usage:    "delete frames taken longer ago than this",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "frame directory (defaults to archiver.save_dir)",
			},
		},
		Action: pruneFrames,
	}
}

func pruneFrames(c *cli.Context) error {
	maxAge := c.Duration("max-age")
	if maxAge <= 0 {
		return fmt.Errorf("--max-age must be positive")
	}
	cfg, err := loadConfig(c, func(cfg *config.Config) {
		if c.IsSet("dir") {
			cfg.Archiver.SaveDir = c.String("dir")
		}
	})
	if err != nil {
		return err
	}

	removed, err := frame.Prune(cfg.Archiver.SaveDir, maxAge, time.Now())
	for _, p := range removed {
		fmt.Fprintln(c.App.Writer, p)
	}
	slog.Info("prune: done", "dir", cfg.Archiver.SaveDir, "removed", len(removed))
	return err
}
