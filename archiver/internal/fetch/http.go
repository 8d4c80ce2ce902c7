package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himawarilapse/himawarilapse/archiver/internal/config"
)

const (
	defaultHTTPTimeout = 2 * time.Minute

	// snapshotPrefix and snapshotLayout reproduce himawaripy's cache file
	// names, e.g. himawari-20240131T094000.png.
	snapshotPrefix = "himawari-"
	snapshotLayout = "20060102T150405"
)

// HTTP downloads a ready-made snapshot image from a URL into the cache
// directory. "{level}" in the URL is replaced with the requested level.
type HTTP struct {
	url    string
	client *http.Client
	now    func() time.Time // injectable for deterministic tests
}

// NewHTTP builds an HTTP fetcher with the auth and TLS settings from cfg.
func NewHTTP(cfg config.FetchConfig) (*HTTP, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http fetcher: url is required")
	}
	return &HTTP{url: cfg.URL, client: buildHTTPClient(cfg), now: time.Now}, nil
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the fetch auth and TLS settings.
func buildHTTPClient(cfg config.FetchConfig) *http.Client {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = tlsCfg
	return &http.Client{
		Transport: &authRoundTripper{base: base, auth: cfg.Auth},
		Timeout:   defaultHTTPTimeout,
	}
}

// URL returns the download URL for level.
func (h *HTTP) URL(level int) string {
	return strings.ReplaceAll(h.url, "{level}", strconv.Itoa(level))
}

// Fetch downloads the image and stores it as the only himawari-*.png in dir.
func (h *HTTP) Fetch(ctx context.Context, level int, dir string) error {
	url := h.URL(level)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("fetch: build request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch: %s: unexpected status %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fetch: create cache dir: %w", err)
	}
	name := filepath.Join(dir, snapshotPrefix+h.now().UTC().Format(snapshotLayout)+".png")
	if err := writeAtomic(name, resp.Body); err != nil {
		return err
	}
	slog.Debug("fetch: snapshot downloaded", "url", url, "path", name)

	removeStale(dir, name)
	return nil
}

// writeAtomic streams r into path via a temporary file and rename.
func writeAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("fetch: create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("fetch: read body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("fetch: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("fetch: rename into place: %w", err)
	}
	return nil
}

// removeStale deletes previous snapshots so the cache holds a single image.
func removeStale(dir, keep string) {
	matches, _ := filepath.Glob(filepath.Join(dir, snapshotPrefix+"*.png"))
	for _, m := range matches {
		if m == keep {
			continue
		}
		if err := os.Remove(m); err != nil {
			slog.Warn("fetch: could not remove stale snapshot", "path", m, "err", err)
		}
	}
}
