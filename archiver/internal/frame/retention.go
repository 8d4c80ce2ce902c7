package frame

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Prune removes frames in dir whose name-encoded timestamp is older than
// now minus maxAge and returns the removed paths. Files that are not frame
// names are never touched. A non-positive maxAge prunes nothing.
func Prune(dir string, maxAge time.Duration, now time.Time) ([]string, error) {
	if maxAge <= 0 {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("frame: read save dir: %w", err)
	}

	cutoff := now.Add(-maxAge)
	var removed []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		taken, ok := Parse(e.Name())
		if !ok || !taken.Before(cutoff) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err != nil {
			return removed, fmt.Errorf("frame: remove %s: %w", p, err)
		}
		removed = append(removed, p)
	}
	return removed, nil
}
