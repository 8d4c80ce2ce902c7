package frame

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// nameLayout is the minute-resolution part of a frame name. The trailing
// seconds are always written as the literal "00".
const nameLayout = "060102_1504"

// ErrNoSource is returned by Latest when no file matches the pattern.
var ErrNoSource = errors.New("frame: no source snapshot found")

// Name returns the archive file name for a frame taken at t, e.g.
// "240131_094500.png". t is formatted in its own location.
func Name(t time.Time, ext string) string {
	return t.Format(nameLayout) + "00" + ext
}

// Parse reverses Name. It reports false for names that are not frame names.
// The returned time is in the local location.
func Parse(name string) (time.Time, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if len(stem) != len(nameLayout)+2 || !strings.HasSuffix(stem, "00") {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(nameLayout, stem[:len(nameLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Latest returns the most recently modified regular file in dir whose base
// name matches pattern.
func Latest(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("frame: glob %q: %w", pattern, err)
	}

	var (
		best    string
		bestMod time.Time
	)
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		if best == "" || fi.ModTime().After(bestMod) {
			best, bestMod = m, fi.ModTime()
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w in %s matching %q", ErrNoSource, dir, pattern)
	}
	return best, nil
}

// Copy copies src to dst. The data is written to a temporary file next to
// dst and renamed into place, so an existing dst is replaced atomically and
// a failed copy never leaves a partial frame behind. dst's directory is
// created if it does not exist.
func Copy(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("frame: open source: %w", err)
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("frame: create save dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("frame: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return fmt.Errorf("frame: copy: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("frame: sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("frame: close: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("frame: chmod: %w", err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("frame: rename into place: %w", err)
	}
	return nil
}
