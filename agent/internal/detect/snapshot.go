package detect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Snapshot maps filename to modification time at one polling instant.
type Snapshot map[string]time.Time

// Take lists the regular files in dir whose name ends in ext. Symlinks are
// followed. A file that disappears between the listing and its stat is left
// out, as is a dangling symlink.
func Take(dir, ext string) (Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("detect: read %s: %w", dir, err)
	}

	snap := make(Snapshot, len(entries))
	for _, de := range entries {
		name := de.Name()
		if !strings.HasSuffix(name, ext) {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("detect: stat %s: %w", name, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		snap[name] = info.ModTime()
	}
	return snap, nil
}

// Names returns the filenames in s, sorted.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of s that can be modified independently.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
