// Package monitor runs the poll loop that keeps backups of the watched
// directory current and restores saves the game deletes.
//
// Run(ctx) checks the watched directory, creates the backup directory,
// then bootstraps: every save present is backed up unconditionally so a
// session already in progress is covered. After that it polls every
// interval. Each Poll takes a detect.Snapshot, backs up New and Updated
// saves and restores Deleted ones. A restored save is entered into the
// snapshot with the current time so the next poll does not see it as
// deleted again.
//
// The loop is strictly sequential. Per-file failures are logged, emitted as
// EventError and never stop the loop. Run returns nil when ctx is cancelled.
package monitor
