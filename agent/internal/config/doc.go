// Package config loads and watches the daemon configuration (savewarden.yaml).
//
// Top-level types:
//   - Config — watch_dir, poll_interval, log, status
//   - LogConfig — level (debug|info|warn|error), format (text|json), optional
//     rotated file with max_size_mb / max_backups / max_age_days
//   - StatusConfig — listen address of the local status server (empty = off),
//     broadcast_interval for websocket stats pushes
//
// Load(path) reads the YAML file, applies defaults (5s poll, info/text
// logging, 5s broadcast), resolves an empty watch_dir to the executable's
// directory, then validates. LoadOrDefault(path) treats a missing file as
// an empty one so the daemon runs with zero configuration.
//
// Watch(ctx, path, onChange) uses fsnotify on the file's directory and calls
// onChange with each successfully reloaded Config.
package config
