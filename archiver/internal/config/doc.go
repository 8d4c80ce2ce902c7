// Package config loads and watches the archiver configuration file.
//
// Top-level types:
//   - Config{Archiver, Encoder}: full config tree parsed from YAML
//   - ArchiverConfig: count, interval, level, save_dir, source, fetch,
//     retention, metrics
//   - FetchConfig: enabled toggle, kind (exec|http), command/args or url,
//     timeout, attempts, retry_delay, auth, tls
//   - EncoderConfig: external video encoder invoked after a run
//
// Load(path) reads the YAML file, applies defaults (144 iterations, 10m
// interval, level 4, ~/.cache/himawaripy → ~/.cache/himawaripy-vid), then
// Finalize expands "~/" paths and validates required fields and enums.
// Without a file, Default() followed by Finalize() gives the same result.
//
// Watch(ctx, path, onChange) uses fsnotify on the file's directory and calls
// onChange with the newly parsed Config once a burst of change events has
// settled. Only a few archiver settings can change mid-run; see
// archiver.Reconfigure.
package config
