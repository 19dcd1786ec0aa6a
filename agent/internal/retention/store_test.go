package retention

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/savewarden/savewarden/agent/internal/savefile"
)

// baseTime is a fixed mtime so copies can be compared exactly.
var baseTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// newStore returns a Store over a fresh temp dir with the backup dir created.
func newStore(t *testing.T) *Store {
	t.Helper()
	st := New(t.TempDir())
	if err := st.EnsureDir(); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	return st
}

// writeSave writes content to dir/name and sets its mtime.
func writeSave(t *testing.T, dir, name, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

// backupsFor returns the names in the backup dir containing key's token.
func backupsFor(t *testing.T, st *Store, key string) []string {
	t.Helper()
	names, err := st.matching(savefile.SessionKey(key))
	if err != nil {
		t.Fatalf("matching: %v", err)
	}
	return names
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestPut_CreatesLabelledBackup(t *testing.T) {
	st := newStore(t)
	idx := NewIndex()
	src := writeSave(t, st.WatchDir(), "game.baronysave", `{"lobbykey":"42","game_name":"Test"}`, baseTime)

	e, err := st.Put(src, idx)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	want := "Test-42-unknown-unknown-lvl0-floor0-0-.baronysave"
	if e.Name != want {
		t.Errorf("Name = %q, want %q", e.Name, want)
	}
	if _, err := os.Stat(filepath.Join(st.BackupDir(), want)); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
	if key, ok := idx.Lookup("game.baronysave"); !ok || key != "42" {
		t.Errorf("index = (%q, %v), want (42, true)", key, ok)
	}
}

func TestPut_PreservesModTime(t *testing.T) {
	st := newStore(t)
	src := writeSave(t, st.WatchDir(), "game.baronysave", `{"lobbykey":"1"}`, baseTime)

	e, err := st.Put(src, NewIndex())
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !e.ModTime.Equal(baseTime) {
		t.Errorf("ModTime = %v, want %v", e.ModTime, baseTime)
	}
}

func TestPut_RepeatedKeepsOneBackup(t *testing.T) {
	st := newStore(t)
	idx := NewIndex()
	src := writeSave(t, st.WatchDir(), "game.baronysave", `{"lobbykey":"42","timestamp":"a"}`, baseTime)

	for i := 0; i < 3; i++ {
		if _, err := st.Put(src, idx); err != nil {
			t.Fatalf("Put #%d: %v", i, err)
		}
	}

	if got := backupsFor(t, st, "42"); len(got) != 1 {
		t.Errorf("backups for 42 = %v, want exactly one", got)
	}
}

func TestPut_ReplacesOlderBackupForSameKey(t *testing.T) {
	st := newStore(t)
	idx := NewIndex()
	src := writeSave(t, st.WatchDir(), "game.baronysave", `{"lobbykey":"42","timestamp":"2024-01-01 10:00"}`, baseTime)
	first, err := st.Put(src, idx)
	if err != nil {
		t.Fatalf("first Put: %v", err)
	}

	writeSave(t, st.WatchDir(), "game.baronysave", `{"lobbykey":"42","timestamp":"2024-01-01 11:00"}`, baseTime.Add(time.Minute))
	second, err := st.Put(src, idx)
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}

	if first.Name == second.Name {
		t.Fatalf("expected a new backup name, both are %q", first.Name)
	}
	got := backupsFor(t, st, "42")
	if len(got) != 1 || got[0] != second.Name {
		t.Errorf("backups for 42 = %v, want [%s]", got, second.Name)
	}
}

func TestPut_LeavesOtherSessionsAlone(t *testing.T) {
	st := newStore(t)
	idx := NewIndex()
	a := writeSave(t, st.WatchDir(), "a.baronysave", `{"lobbykey":"100"}`, baseTime)
	b := writeSave(t, st.WatchDir(), "b.baronysave", `{"lobbykey":"200"}`, baseTime)

	for _, p := range []string{a, b, a} {
		if _, err := st.Put(p, idx); err != nil {
			t.Fatalf("Put %s: %v", p, err)
		}
	}

	if got := backupsFor(t, st, "100"); len(got) != 1 {
		t.Errorf("backups for 100 = %v, want one", got)
	}
	if got := backupsFor(t, st, "200"); len(got) != 1 {
		t.Errorf("backups for 200 = %v, want one", got)
	}
}

func TestPut_MalformedDocument(t *testing.T) {
	st := newStore(t)
	idx := NewIndex()
	src := writeSave(t, st.WatchDir(), "game.baronysave", `{not json`, baseTime)

	_, err := st.Put(src, idx)
	if !errors.Is(err, savefile.ErrMalformed) {
		t.Fatalf("Put err = %v, want ErrMalformed", err)
	}
	entries, _ := os.ReadDir(st.BackupDir())
	if len(entries) != 0 {
		t.Errorf("backup dir has %d entries, want 0", len(entries))
	}
	if idx.Len() != 0 {
		t.Errorf("index len = %d, want 0", idx.Len())
	}
}

func TestPut_NoSessionKey(t *testing.T) {
	st := newStore(t)
	idx := NewIndex()
	idx.Record("game.baronysave", "stale")
	src := writeSave(t, st.WatchDir(), "game.baronysave", `{"game_name":"Solo"}`, baseTime)

	e, err := st.Put(src, idx)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(e.Name, "Solo-0-") {
		t.Errorf("Name = %q, want Solo-0- prefix", e.Name)
	}
	if _, ok := idx.Lookup("game.baronysave"); ok {
		t.Error("index still holds a key for a save without one")
	}
}

func TestPut_CopyFailureLeavesIndexUntouched(t *testing.T) {
	st := New(t.TempDir()) // backup dir never created
	idx := NewIndex()
	src := writeSave(t, st.WatchDir(), "game.baronysave", `{"lobbykey":"42"}`, baseTime)

	if _, err := st.Put(src, idx); err == nil {
		t.Fatal("Put into missing backup dir: expected error")
	}
	if idx.Len() != 0 {
		t.Errorf("index len = %d, want 0", idx.Len())
	}
}

func TestRestoreLatest_UnknownFile(t *testing.T) {
	st := newStore(t)

	_, err := st.RestoreLatest("game.baronysave", NewIndex())
	if !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("err = %v, want ErrUnknownSession", err)
	}
	if _, err := os.Stat(filepath.Join(st.WatchDir(), "game.baronysave")); !os.IsNotExist(err) {
		t.Error("restore with unknown session wrote a file")
	}
}

func TestRestoreLatest_NoBackupWritesNothing(t *testing.T) {
	st := newStore(t)
	idx := NewIndex()
	idx.Record("game.baronysave", "42")

	_, err := st.RestoreLatest("game.baronysave", idx)
	if !errors.Is(err, ErrNoBackup) {
		t.Fatalf("err = %v, want ErrNoBackup", err)
	}
	if _, err := os.Stat(filepath.Join(st.WatchDir(), "game.baronysave")); !os.IsNotExist(err) {
		t.Error("restore without backups wrote a file")
	}
}

func TestRestoreLatest_CopiesBackupContent(t *testing.T) {
	st := newStore(t)
	idx := NewIndex()
	content := `{"lobbykey":"42","game_name":"Test","timestamp":"t1"}`
	src := writeSave(t, st.WatchDir(), "game.baronysave", content, baseTime)
	if _, err := st.Put(src, idx); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := os.Remove(src); err != nil {
		t.Fatalf("remove: %v", err)
	}

	e, err := st.RestoreLatest("game.baronysave", idx)
	if err != nil {
		t.Fatalf("RestoreLatest: %v", err)
	}
	if got := readFile(t, src); got != content {
		t.Errorf("restored content = %q, want %q", got, content)
	}
	fi, err := os.Stat(src)
	if err != nil {
		t.Fatalf("stat restored: %v", err)
	}
	if !fi.ModTime().Equal(e.ModTime) {
		t.Errorf("restored mtime = %v, want backup mtime %v", fi.ModTime(), e.ModTime)
	}
}

func TestRestoreLatest_PicksGreatestName(t *testing.T) {
	st := newStore(t)
	idx := NewIndex()
	idx.Record("game.baronysave", "7")
	writeSave(t, st.BackupDir(), "G-7-human-rogue-lvl1-floor1-0-2024-01-01_09-00.baronysave", "old", baseTime)
	writeSave(t, st.BackupDir(), "G-7-human-rogue-lvl3-floor2-0-2024-01-02_09-00.baronysave", "new", baseTime)
	writeSave(t, st.BackupDir(), "G-8-human-rogue-lvl9-floor9-0-2099-01-01_00-00.baronysave", "other", baseTime)

	e, err := st.RestoreLatest("game.baronysave", idx)
	if err != nil {
		t.Fatalf("RestoreLatest: %v", err)
	}
	if !strings.Contains(e.Name, "2024-01-02") {
		t.Errorf("restored from %q, want the 2024-01-02 backup", e.Name)
	}
	if got := readFile(t, filepath.Join(st.WatchDir(), "game.baronysave")); got != "new" {
		t.Errorf("restored content = %q, want new", got)
	}
}

func TestRestore_RejectsPaths(t *testing.T) {
	st := newStore(t)
	for _, name := range []string{"", ".", "..", "../x.baronysave", "a/b.baronysave"} {
		if err := st.Restore("whatever.baronysave", name); err == nil {
			t.Errorf("Restore(_, %q): expected error", name)
		}
	}
}

func TestList_SortedWithInfo(t *testing.T) {
	st := newStore(t)
	idx := NewIndex()
	b := writeSave(t, st.WatchDir(), "b.baronysave", `{"lobbykey":"2","game_name":"Beta"}`, baseTime)
	a := writeSave(t, st.WatchDir(), "a.baronysave", `{"lobbykey":"1","game_name":"Alpha"}`, baseTime)
	for _, p := range []string{b, a} {
		if _, err := st.Put(p, idx); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	writeSave(t, st.BackupDir(), "notes.txt", "ignored", baseTime)

	list, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List len = %d, want 2", len(list))
	}
	if list[0].Info.GameName != "Alpha" || list[1].Info.GameName != "Beta" {
		t.Errorf("List order = [%s %s], want [Alpha Beta]", list[0].Info.GameName, list[1].Info.GameName)
	}
	if list[0].Info.SessionKey != "1" {
		t.Errorf("List[0] key = %q, want 1", list[0].Info.SessionKey)
	}
}

func TestList_MissingDir(t *testing.T) {
	st := New(t.TempDir())
	list, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List len = %d, want 0", len(list))
	}
}
