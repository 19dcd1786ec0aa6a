// Package logging builds the process logger from the log section of the
// config: a text or JSON slog handler, an adjustable level, and an optional
// size-rotated log file written alongside stderr.
package logging
