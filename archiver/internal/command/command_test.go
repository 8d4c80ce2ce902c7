package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/himawarilapse/himawarilapse/archiver/internal/frame"
)

// runApp executes the CLI with args and returns stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"himawari-archiver"}, args...))
	return stdout.String(), err
}

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "himawari-archiver" {
		t.Errorf("Name = %q", app.Name)
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}
	for _, name := range []string{"run", "encode", "prune"} {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}

	flagNames := make(map[string]bool)
	for _, flag := range app.Flags {
		flagNames[flag.Names()[0]] = true
	}
	for _, name := range []string{"config", "log-level"} {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

func TestRun_PrintsMarkersAndArchives(t *testing.T) {
	src, save := t.TempDir(), t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "himawari-20260101T000000.png"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	prom := filepath.Join(t.TempDir(), "archiver.prom")

	out, err := runApp(t, "run",
		"--count", "3",
		"--interval", "5ms",
		"--source-dir", src,
		"--save-dir", save,
		"--metrics-textfile", prom,
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "1\n2\n3\n" {
		t.Errorf("stdout = %q, want iteration markers only", out)
	}

	entries, err := os.ReadDir(save)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Fatal("no frames archived")
	}
	for _, e := range entries {
		if _, ok := frame.Parse(e.Name()); !ok {
			t.Errorf("unexpected file in save dir: %s", e.Name())
		}
	}

	b, err := os.ReadFile(prom)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(b), "himawari_archiver_iterations_total 3") {
		t.Errorf("metrics textfile missing iteration count:\n%s", b)
	}
}

func TestRun_WithConfigFile(t *testing.T) {
	src, save := t.TempDir(), t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "snap.jpg"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "archiver:\n" +
		"  count: 1\n" +
		"  interval: 1h\n" +
		"  save_dir: " + save + "\n" +
		"  source:\n" +
		"    dir: " + src + "\n" +
		"    pattern: \"*.jpg\"\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runApp(t, "--config", cfgPath, "run")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "1\n" {
		t.Errorf("stdout = %q", out)
	}
	entries, _ := os.ReadDir(save)
	if len(entries) != 1 || filepath.Ext(entries[0].Name()) != ".jpg" {
		t.Errorf("save dir = %v, want one .jpg frame", entries)
	}
}

func TestRun_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad level", []string{"run", "--level", "5"}},
		{"zero count", []string{"run", "--count", "0"}},
		{"bad log level", []string{"--log-level", "loud", "run"}},
		{"missing config", []string{"--config", "/nonexistent/config.yaml", "run"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runApp(t, tc.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := frame.Name(now.Add(-48*time.Hour), ".png")
	recent := frame.Name(now.Add(-time.Hour), ".png")
	for _, name := range []string{old, recent, "timelapse.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, err := runApp(t, "prune", "--max-age", "24h", "--dir", dir)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if strings.TrimSpace(out) != filepath.Join(dir, old) {
		t.Errorf("stdout = %q, want the removed frame", out)
	}
	if _, err := os.Stat(filepath.Join(dir, recent)); err != nil {
		t.Error("recent frame should be kept")
	}
}

func TestPrune_RequiresMaxAge(t *testing.T) {
	if _, err := runApp(t, "prune", "--dir", t.TempDir()); err == nil {
		t.Fatal("expected error without --max-age")
	}
}

func TestEncode_NoFrames(t *testing.T) {
	if _, err := runApp(t, "encode", "--dir", t.TempDir()); err == nil {
		t.Fatal("expected error for empty frame dir")
	}
}

func TestFrameExt(t *testing.T) {
	tests := map[string]string{
		"*.png":          ".png",
		"himawari-*.jpg": ".jpg",
		"*":              ".png",
		"*.*":            ".png",
	}
	for pattern, want := range tests {
		if got := frameExt(pattern); got != want {
			t.Errorf("frameExt(%q) = %q, want %q", pattern, got, want)
		}
	}
}
