// Package status implements the optional read-only status server.
//
// It exposes JSON endpoints under /api/v1/ (health, backups, stats), the
// monitor counters in the Prometheus text format at /metrics, and a
// WebSocket feed at /ws/events. The feed pushes every monitor event as it
// happens and a stats summary on a fixed interval.
package status
