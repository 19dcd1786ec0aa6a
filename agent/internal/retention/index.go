package retention

import "github.com/savewarden/savewarden/agent/internal/savefile"

// Index maps a live save filename to the session key last backed up from it.
// It is owned by a single goroutine and is not safe for concurrent use.
type Index struct {
	keys map[string]savefile.SessionKey
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{keys: make(map[string]savefile.SessionKey)}
}

// Record remembers key as the session of filename.
func (x *Index) Record(filename string, key savefile.SessionKey) {
	x.keys[filename] = key
}

// Forget drops filename. Used when its latest content carries no key.
func (x *Index) Forget(filename string) {
	delete(x.keys, filename)
}

// Lookup returns the session key recorded for filename.
func (x *Index) Lookup(filename string) (savefile.SessionKey, bool) {
	key, ok := x.keys[filename]
	return key, ok
}

// Len returns the number of recorded filenames.
func (x *Index) Len() int {
	return len(x.keys)
}
