package types

import "time"

// EventKind names what happened to a save file.
type EventKind string

const (
	// EventBackup means a save was copied into the backup directory.
	EventBackup EventKind = "backup"
	// EventRestore means a deleted save was restored from its latest backup.
	EventRestore EventKind = "restore"
	// EventRestoreSkipped means a save was deleted and no backup was available.
	EventRestoreSkipped EventKind = "restore_skipped"
	// EventError means handling a save failed; Op names the failed step.
	EventError EventKind = "error"
)

// Operations reported in Event.Op for EventError.
const (
	OpBackup   = "backup"
	OpRestore  = "restore"
	OpSnapshot = "snapshot"
)

// Event is one outcome of the monitor loop.
type Event struct {
	Kind       EventKind `json:"kind"`
	Op         string    `json:"op,omitempty"`
	File       string    `json:"file,omitempty"`
	Backup     string    `json:"backup,omitempty"`
	SessionKey string    `json:"session_key,omitempty"`
	Message    string    `json:"message,omitempty"`
	Time       time.Time `json:"time"`
}
