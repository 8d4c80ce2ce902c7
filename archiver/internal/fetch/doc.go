// Package fetch refreshes the satellite snapshot before it is archived.
//
// Fetcher has a single method, Fetch(ctx, level, dir). Implementations:
//   - Exec runs an external tool (himawaripy) with --level and --output-dir.
//   - HTTP downloads a ready-made image and keeps it as the only
//     himawari-*.png in the cache directory, the way the tool itself does.
//   - Nop leaves refreshing to something outside the archiver, e.g. a
//     wallpaper updater running on its own timer.
//
// Retry wraps any Fetcher with truncated exponential backoff (±25% jitter).
// New(config.FetchConfig) builds the configured kind wrapped in Retry.
package fetch
