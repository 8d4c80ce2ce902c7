package encode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/himawarilapse/himawarilapse/archiver/internal/config"
)

func newTestEncoder(output string) *Encoder {
	return New(config.EncoderConfig{
		Command:   "ffmpeg",
		Framerate: 24,
		Codec:     "libx264",
		Output:    output,
	})
}

func TestEncoder_Args(t *testing.T) {
	e := newTestEncoder("/vid/timelapse.mp4")
	want := []string{
		"-y",
		"-framerate", "24",
		"-pattern_type", "glob",
		"-i", "/frames/*.png",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"/vid/timelapse.mp4",
	}
	if got := e.Args("/frames", ".png"); !reflect.DeepEqual(got, want) {
		t.Errorf("Args = %v\nwant %v", got, want)
	}
}

func TestEncoder_Run(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"240131_094000.png", "240131_095000.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	e := newTestEncoder(filepath.Join(dir, "out.mp4"))
	var calls int
	var gotName string
	e.run = func(_ context.Context, name string, _ ...string) error {
		calls++
		gotName = name
		return nil
	}

	if err := e.Run(context.Background(), dir, ".png"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 || gotName != "ffmpeg" {
		t.Errorf("runner calls = %d name = %q", calls, gotName)
	}
}

func TestEncoder_RunNoFrames(t *testing.T) {
	e := newTestEncoder("out.mp4")
	e.run = func(context.Context, string, ...string) error {
		t.Fatal("encoder must not run without frames")
		return nil
	}
	if err := e.Run(context.Background(), t.TempDir(), ".png"); err == nil {
		t.Fatal("expected error for empty frame dir")
	}
}

func TestEncoder_RunFailure(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "240131_094000.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("exit status 1")
	e := newTestEncoder("out.mp4")
	e.run = func(context.Context, string, ...string) error { return boom }

	if err := e.Run(context.Background(), dir, ".png"); !errors.Is(err, boom) {
		t.Fatalf("Run err = %v, want %v", err, boom)
	}
}
