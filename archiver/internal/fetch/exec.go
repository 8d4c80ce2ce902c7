package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// maxStderr bounds how much of the tool's stderr is quoted in an error.
const maxStderr = 512

// runFunc executes a command; a failure error carries the tail of its stderr.
// Abstracted so tests can record invocations instead of spawning processes.
type runFunc func(ctx context.Context, name string, args ...string) error

// Exec runs an external image-fetch tool, himawaripy by default:
//
//	<command> --level <level> --output-dir <dir> <extra args...>
type Exec struct {
	command string
	args    []string
	run     runFunc // injectable for tests
}

// NewExec returns an Exec fetcher for command with extra trailing args.
func NewExec(command string, args []string) *Exec {
	return &Exec{command: command, args: args, run: runCommand}
}

// Fetch runs the tool and waits for it to exit.
func (e *Exec) Fetch(ctx context.Context, level int, dir string) error {
	args := e.Args(level, dir)
	slog.Debug("fetch: running tool", "command", e.command, "args", args)
	if err := e.run(ctx, e.command, args...); err != nil {
		return fmt.Errorf("fetch: %s: %w", e.command, err)
	}
	return nil
}

// Args returns the argument list passed to the tool.
func (e *Exec) Args(level int, dir string) []string {
	out := []string{"--level", strconv.Itoa(level), "--output-dir", dir}
	return append(out, e.args...)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[len(msg)-maxStderr:]
		}
		if msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
