package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultCount         = 144
	DefaultInterval      = 10 * time.Minute
	DefaultLevel         = 4
	DefaultSaveDir       = "~/.cache/himawaripy-vid"
	DefaultSourceDir     = "~/.cache/himawaripy"
	DefaultSourcePattern = "*.png"
	DefaultFetchKind     = "exec"
	DefaultFetchCommand  = "himawaripy"
	DefaultFetchTimeout  = 6 * time.Minute
	DefaultFetchAttempts = 3
	DefaultRetryDelay    = 1 * time.Second
	DefaultEncoder       = "ffmpeg"
	DefaultFramerate     = 24
	DefaultCodec         = "libx264"
	DefaultVideoOutput   = "~/.cache/himawaripy-vid/timelapse.mp4"
)

// Config is the top-level configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Archiver ArchiverConfig `yaml:"archiver"`
	Encoder  EncoderConfig  `yaml:"encoder"`
}

// ArchiverConfig holds all settings of the snapshot loop.
type ArchiverConfig struct {
	// Count is the number of iterations to run.
	Count int `yaml:"count"`

	// Interval is the wait between two iterations.
	Interval time.Duration `yaml:"interval"`

	// Level is the resolution handed to the fetch tool: 4 | 8 | 16 | 20.
	Level int `yaml:"level"`

	// SaveDir is where archived frames are written.
	SaveDir string `yaml:"save_dir"`

	Source    SourceConfig    `yaml:"source"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Retention RetentionConfig `yaml:"retention"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// SourceConfig locates the snapshot produced by the fetch tool.
type SourceConfig struct {
	// Dir is the fetch tool's cache directory.
	Dir string `yaml:"dir"`

	// Pattern is a filepath.Match glob; the newest match is archived.
	Pattern string `yaml:"pattern"`
}

// FetchConfig controls the optional refresh of the snapshot before copying.
type FetchConfig struct {
	Enabled bool `yaml:"enabled"`

	// Kind is one of: exec | http.
	Kind string `yaml:"kind"`

	// Command and Args are used when Kind == "exec".
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	// URL is used when Kind == "http". "{level}" is replaced with Level.
	URL string `yaml:"url"`

	// Timeout bounds a single fetch including retries. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`

	// Attempts is the total number of tries per fetch.
	Attempts int `yaml:"attempts"`

	// RetryDelay is the initial backoff between attempts.
	RetryDelay time.Duration `yaml:"retry_delay"`

	Auth AuthConfig `yaml:"auth"`
	TLS  TLSConfig  `yaml:"tls"`
}

// AuthConfig specifies how the HTTP fetcher authenticates.
type AuthConfig struct {
	// Mode is one of: none | bearer | basic.
	Mode string `yaml:"mode"`

	// TokenEnv is the name of the environment variable that holds the token.
	TokenEnv string `yaml:"token_env"`

	// Username is the literal username (safe to store in config).
	Username string `yaml:"username"`
	// PasswordEnv is the name of the environment variable that holds the password.
	PasswordEnv string `yaml:"password_env"`
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// TLSConfig holds TLS dial options for the HTTP fetcher.
type TLSConfig struct {
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// RetentionConfig controls pruning of old frames from SaveDir.
type RetentionConfig struct {
	// MaxAge removes frames older than this after every archived frame.
	// Zero keeps everything.
	MaxAge time.Duration `yaml:"max_age"`
}

// MetricsConfig controls the Prometheus textfile exporter.
type MetricsConfig struct {
	// Textfile is the .prom file rewritten after every iteration.
	// Empty disables the exporter.
	Textfile string `yaml:"textfile"`
}

// EncoderConfig describes the external video encoder.
type EncoderConfig struct {
	// Enabled runs the encoder after a run completes all iterations.
	Enabled   bool   `yaml:"enabled"`
	Command   string `yaml:"command"`
	Framerate int    `yaml:"framerate"`
	Codec     string `yaml:"codec"`
	Output    string `yaml:"output"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config pre-populated with default values.
// Paths are not yet expanded; call Finalize before use.
func Default() *Config {
	return &Config{
		Archiver: ArchiverConfig{
			Count:    DefaultCount,
			Interval: DefaultInterval,
			Level:    DefaultLevel,
			SaveDir:  DefaultSaveDir,
			Source: SourceConfig{
				Dir:     DefaultSourceDir,
				Pattern: DefaultSourcePattern,
			},
			Fetch: FetchConfig{
				Kind:       DefaultFetchKind,
				Command:    DefaultFetchCommand,
				Timeout:    DefaultFetchTimeout,
				Attempts:   DefaultFetchAttempts,
				RetryDelay: DefaultRetryDelay,
			},
		},
		Encoder: EncoderConfig{
			Command:   DefaultEncoder,
			Framerate: DefaultFramerate,
			Codec:     DefaultCodec,
			Output:    DefaultVideoOutput,
		},
	}
}

// Finalize expands "~/" in every path and validates the result.
// It must be called again after flag overrides are applied.
func (c *Config) Finalize() error {
	for _, p := range []*string{
		&c.Archiver.SaveDir,
		&c.Archiver.Source.Dir,
		&c.Archiver.Metrics.Textfile,
		&c.Encoder.Output,
	} {
		expanded, err := ExpandHome(*p)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		*p = expanded
	}
	if err := validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading "~" path element with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// validLevels are the tile levels the fetch tool accepts.
var validLevels = map[int]bool{4: true, 8: true, 16: true, 20: true}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	a := cfg.Archiver
	if a.Count <= 0 {
		return fmt.Errorf("archiver.count must be positive")
	}
	if a.Interval <= 0 {
		return fmt.Errorf("archiver.interval must be positive")
	}
	if !validLevels[a.Level] {
		return fmt.Errorf("archiver.level must be one of 4, 8, 16, 20 (got %d)", a.Level)
	}
	if a.SaveDir == "" {
		return fmt.Errorf("archiver.save_dir is required")
	}
	if a.Source.Dir == "" {
		return fmt.Errorf("archiver.source.dir is required")
	}
	if a.Source.Pattern == "" {
		return fmt.Errorf("archiver.source.pattern is required")
	}
	if _, err := filepath.Match(a.Source.Pattern, ""); err != nil {
		return fmt.Errorf("archiver.source.pattern %q: %w", a.Source.Pattern, err)
	}

	f := a.Fetch
	switch f.Kind {
	case "exec":
		if f.Command == "" {
			return fmt.Errorf("archiver.fetch.command is required for kind exec")
		}
	case "http":
		if f.URL == "" {
			return fmt.Errorf("archiver.fetch.url is required for kind http")
		}
	default:
		return fmt.Errorf("archiver.fetch: unknown kind %q", f.Kind)
	}
	if f.Attempts < 1 {
		return fmt.Errorf("archiver.fetch.attempts must be at least 1")
	}
	if f.Timeout < 0 || f.RetryDelay < 0 {
		return fmt.Errorf("archiver.fetch: timeout and retry_delay must not be negative")
	}
	switch f.Auth.Mode {
	case "none", "bearer", "basic", "":
	default:
		return fmt.Errorf("archiver.fetch: unknown auth mode %q", f.Auth.Mode)
	}

	if a.Retention.MaxAge < 0 {
		return fmt.Errorf("archiver.retention.max_age must not be negative")
	}

	if cfg.Encoder.Framerate <= 0 {
		return fmt.Errorf("encoder.framerate must be positive")
	}
	if cfg.Encoder.Enabled && (cfg.Encoder.Command == "" || cfg.Encoder.Output == "") {
		return fmt.Errorf("encoder: command and output are required when enabled")
	}
	return nil
}
