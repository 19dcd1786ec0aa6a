// Package types defines the Go types shared by the monitor loop and the
// status server. Event is what the monitor emits after handling a file;
// the status server counts it and streams it to websocket clients.
package types
