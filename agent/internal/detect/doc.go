// Package detect captures the state of the watched directory and classifies
// what changed between two captures.
//
// Take(dir, ext) returns a Snapshot (filename -> modification time) of the
// regular files with the given extension. Diff(prev, cur) splits filenames
// into New, Updated (mtime strictly later) and Deleted; files whose mtime is
// unchanged are not reported.
//
// Detection is poll based. A file created and removed between two captures
// is never seen.
package detect
