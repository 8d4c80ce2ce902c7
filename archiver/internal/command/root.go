// Package command provides the CLI of himawari-archiver.
//
// It uses urfave/cli/v2 for command parsing. Every command shares the
// --config and --log-level global flags; logs are JSON on stderr so that
// stdout carries only command output (iteration markers for run).
package command

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/himawarilapse/himawarilapse/archiver/internal/config"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "himawari-archiver",
		Usage:   "collect satellite snapshots into a time-lapse frame archive",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			RunCommand(),
			EncodeCommand(),
			PruneCommand(),
		},
		Before: setupLogging,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to config file (defaults are used when omitted)",
			EnvVars: []string{"HIMAWARI_ARCHIVER_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log level: debug, info, warn, error",
			Value: "info",
		},
	}
}

func setupLogging(c *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", c.String("log-level"), err)
	}
	w := c.App.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads --config if given, otherwise starts from the defaults,
// then lets override adjust the result before it is finalized.
func loadConfig(c *cli.Context, override func(*config.Config)) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// frameExt is the extension archived frames carry, taken from the source
// pattern ("*.png" → ".png").
func frameExt(pattern string) string {
	if ext := filepath.Ext(pattern); ext != "" && ext != ".*" {
		return ext
	}
	return ".png"
}
