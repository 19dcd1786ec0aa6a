package retention

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/savewarden/savewarden/agent/internal/savefile"
)

// BackupDirName is the name of the backup directory inside the watched directory.
const BackupDirName = "backups"

var (
	// ErrUnknownSession is returned by RestoreLatest when no session key was
	// ever recorded for the file.
	ErrUnknownSession = errors.New("retention: no session key recorded")

	// ErrNoBackup is returned when no backup matches a session key.
	ErrNoBackup = errors.New("retention: no backup for session")
)

// Entry describes one file written or found in the backup directory.
type Entry struct {
	Name    string        `json:"name"`
	Path    string        `json:"-"`
	Size    int64         `json:"size"`
	ModTime time.Time     `json:"mod_time"`
	Info    savefile.Info `json:"info"`
}

// Store manages the backup directory of one watched directory.
// The monitor loop is its only writer.
type Store struct {
	watchDir  string
	backupDir string
}

// New returns a Store that keeps backups for watchDir in watchDir/backups.
func New(watchDir string) *Store {
	return &Store{
		watchDir:  watchDir,
		backupDir: filepath.Join(watchDir, BackupDirName),
	}
}

// WatchDir returns the directory holding the live saves.
func (s *Store) WatchDir() string { return s.watchDir }

// BackupDir returns the directory holding the backups.
func (s *Store) BackupDir() string { return s.backupDir }

// EnsureDir creates the backup directory if it does not exist.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return fmt.Errorf("retention: create backup dir: %w", err)
	}
	return nil
}

// Put backs up the save at src. When the document carries a session key,
// every existing backup for that key is removed first and the key is
// recorded in idx under the base name of src.
//
// A malformed document or a failed copy returns an error and leaves idx
// untouched. Failures to remove old backups are logged and ignored.
func (s *Store) Put(src string, idx *Index) (*Entry, error) {
	name := filepath.Base(src)

	doc, err := savefile.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("retention: put %s: %w", name, err)
	}
	info := savefile.Describe(doc)

	if info.HasKey {
		s.prune(info.SessionKey)
	}

	dst := filepath.Join(s.backupDir, info.Filename())
	if err := copyFile(src, dst); err != nil {
		return nil, fmt.Errorf("retention: back up %s: %w", name, err)
	}

	if info.HasKey {
		idx.Record(name, info.SessionKey)
	} else {
		idx.Forget(name)
	}

	slog.Info("retention: backed up", "file", name, "backup", info.Filename())
	return s.entry(dst, info)
}

// RestoreLatest copies the latest backup for the session recorded against
// filename back into the watched directory under that name.
func (s *Store) RestoreLatest(filename string, idx *Index) (*Entry, error) {
	key, ok := idx.Lookup(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, filename)
	}
	latest, err := s.Latest(key)
	if err != nil {
		return nil, err
	}
	if err := s.Restore(latest.Name, filename); err != nil {
		return nil, err
	}
	slog.Info("retention: restored", "file", filename, "backup", latest.Name)
	return latest, nil
}

// Latest returns the backup for key whose filename sorts last. Backup names
// share the same prefix for one session and end in the save timestamp, so
// the last name is taken to be the most recent save.
func (s *Store) Latest(key savefile.SessionKey) (*Entry, error) {
	names, err := s.matching(key)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoBackup, key)
	}
	path := filepath.Join(s.backupDir, names[len(names)-1])
	return s.entry(path, describeFile(path))
}

// Restore copies the backup named backupName into the watched directory as
// filename, overwriting any file already there.
func (s *Store) Restore(backupName, filename string) error {
	if !plainName(filename) {
		return fmt.Errorf("retention: restore target %q is not a plain filename", filename)
	}
	src := filepath.Join(s.backupDir, filepath.Base(backupName))
	dst := filepath.Join(s.watchDir, filename)
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("retention: restore %s from %s: %w", filename, backupName, err)
	}
	return nil
}

// List returns every backup in the backup directory sorted by name.
// Backups whose content cannot be parsed are listed with placeholder Info.
func (s *Store) List() ([]Entry, error) {
	names, err := s.backupNames(func(string) bool { return true })
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		path := filepath.Join(s.backupDir, name)
		e, err := s.entry(path, describeFile(path))
		if err != nil {
			slog.Warn("retention: skipping backup", "backup", name, "err", err)
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

// prune removes every backup for key. Errors are logged, never returned.
func (s *Store) prune(key savefile.SessionKey) {
	names, err := s.matching(key)
	if err != nil {
		slog.Warn("retention: cannot list old backups", "key", key, "err", err)
		return
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.backupDir, name)); err != nil {
			slog.Warn("retention: cannot remove old backup", "backup", name, "err", err)
			continue
		}
		slog.Debug("retention: removed old backup", "backup", name, "key", key)
	}
}

// matching returns the sorted names of backups that belong to key.
func (s *Store) matching(key savefile.SessionKey) ([]string, error) {
	token := key.Token()
	return s.backupNames(func(name string) bool {
		return strings.Contains(name, token)
	})
}

// backupNames lists backup files accepted by keep, sorted by name.
// A missing backup directory yields no names.
func (s *Store) backupNames(keep func(string) bool) ([]string, error) {
	dirEntries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("retention: read backup dir: %w", err)
	}
	var names []string
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, savefile.Extension) || !keep(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) entry(path string, info savefile.Info) (*Entry, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("retention: stat %s: %w", filepath.Base(path), err)
	}
	return &Entry{
		Name:    fi.Name(),
		Path:    path,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		Info:    info,
	}, nil
}

// describeFile reads the backup at path for display. Unreadable content
// yields the placeholder Info.
func describeFile(path string) savefile.Info {
	doc, err := savefile.ReadFile(path)
	if err != nil {
		return savefile.Describe(savefile.Document{})
	}
	return savefile.Describe(doc)
}

// copyFile copies src to dst along with its permission bits and
// modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := os.Chmod(dst, fi.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, fi.ModTime(), fi.ModTime())
}

// plainName reports whether name is a bare filename with no directory part.
func plainName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name &&
		!strings.ContainsAny(name, `/\`)
}
