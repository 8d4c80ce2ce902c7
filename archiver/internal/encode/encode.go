// Package encode stitches archived frames into a video with an external
// encoder (ffmpeg). Frame names sort chronologically, so the encoder's glob
// input yields the frames in capture order.
package encode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/himawarilapse/himawarilapse/archiver/internal/config"
)

// runFunc executes the encoder. Abstracted so tests can record invocations.
type runFunc func(ctx context.Context, name string, args ...string) error

// Encoder invokes an ffmpeg-compatible command line.
type Encoder struct {
	Command   string
	Framerate int
	Codec     string
	Output    string

	run runFunc // injectable for tests
}

// New returns an Encoder from cfg.
func New(cfg config.EncoderConfig) *Encoder {
	return &Encoder{
		Command:   cfg.Command,
		Framerate: cfg.Framerate,
		Codec:     cfg.Codec,
		Output:    cfg.Output,
		run:       runCommand,
	}
}

// Args returns the encoder arguments for frames in dir with extension ext.
func (e *Encoder) Args(dir, ext string) []string {
	return []string{
		"-y",
		"-framerate", strconv.Itoa(e.Framerate),
		"-pattern_type", "glob",
		"-i", filepath.Join(dir, "*"+ext),
		"-c:v", e.Codec,
		"-pix_fmt", "yuv420p",
		e.Output,
	}
}

// Run encodes every frame in dir into e.Output. It fails without invoking
// the encoder when dir holds no frame with the given extension.
func (e *Encoder) Run(ctx context.Context, dir, ext string) error {
	frames, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return fmt.Errorf("encode: glob frames: %w", err)
	}
	if len(frames) == 0 {
		return fmt.Errorf("encode: no %s frames in %s", ext, dir)
	}

	args := e.Args(dir, ext)
	slog.Info("encode: starting", "command", e.Command, "frames", len(frames), "output", e.Output)
	if err := e.run(ctx, e.Command, args...); err != nil {
		return fmt.Errorf("encode: %s: %w", e.Command, err)
	}
	slog.Info("encode: finished", "output", e.Output)
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
