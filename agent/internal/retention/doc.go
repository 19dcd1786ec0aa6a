// Package retention keeps one backup per session key in the backup directory
// and copies the latest one back when a live save disappears.
//
// The filesystem is the only index of backups: a backup belongs to session K
// when its filename ends in .baronysave and contains the token "-K-". Put
// removes every such file before writing the new copy, so after Put returns
// at most one backup exists for K.
//
// Index maps live save filenames to the session key last read from them. A
// deleted save cannot be parsed, so RestoreLatest resolves its key through
// the Index. Entries are never evicted.
//
// Copies preserve the file mode and modification time. A copy is a plain
// whole-file write; a crash mid-copy can leave a truncated backup behind.
package retention
