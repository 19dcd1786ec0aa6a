package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/savewarden/savewarden/agent/internal/detect"
	"github.com/savewarden/savewarden/agent/internal/retention"
	"github.com/savewarden/savewarden/agent/internal/savefile"
	"github.com/savewarden/savewarden/agent/internal/stats"
	"github.com/savewarden/savewarden/pkg/types"
)

// DefaultInterval is the time between two polls.
const DefaultInterval = 5 * time.Second

// Observer receives every event the monitor emits.
type Observer interface {
	Observe(types.Event)
}

// Options configures a Monitor. Zero values select the defaults.
type Options struct {
	Interval  time.Duration
	Stats     *stats.Counters
	Observers []Observer
	Now       func() time.Time // injectable for deterministic tests
}

// Monitor owns the loop state: the previous snapshot and the session key
// index. It is not safe for concurrent use.
type Monitor struct {
	store     *retention.Store
	idx       *retention.Index
	prev      detect.Snapshot
	interval  time.Duration
	stats     *stats.Counters
	observers []Observer
	now       func() time.Time
}

// New returns a Monitor for the directory managed by store.
func New(store *retention.Store, opts Options) *Monitor {
	m := &Monitor{
		store:     store,
		idx:       retention.NewIndex(),
		interval:  opts.Interval,
		stats:     opts.Stats,
		observers: opts.Observers,
		now:       opts.Now,
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.stats == nil {
		m.stats = stats.New()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Index returns the session key index. Tests use it to inspect loop state.
func (m *Monitor) Index() *retention.Index { return m.idx }

// Run checks the watched directory, bootstraps and polls until ctx is
// cancelled. It returns an error only when the loop cannot start.
func (m *Monitor) Run(ctx context.Context) error {
	dir := m.store.WatchDir()
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("monitor: watch dir: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("monitor: watch dir %s is not a directory", dir)
	}

	if err := m.store.EnsureDir(); err != nil {
		// Not fatal: every backup attempt will fail and be logged on its own.
		slog.Error("monitor: cannot create backup directory", "dir", m.store.BackupDir(), "err", err)
	}

	if err := m.Bootstrap(); err != nil {
		return err
	}

	slog.Info("monitor: watching", "dir", dir, "interval", m.interval, "saves", len(m.prev))

	t := time.NewTicker(m.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor: shutting down")
			return nil
		case <-t.C:
			m.Poll()
		}
	}
}

// Bootstrap takes the initial snapshot and backs up every save in it.
func (m *Monitor) Bootstrap() error {
	snap, err := detect.Take(m.store.WatchDir(), savefile.Extension)
	if err != nil {
		return fmt.Errorf("monitor: initial snapshot: %w", err)
	}
	for _, name := range snap.Names() {
		m.backup(name)
	}
	m.prev = snap
	return nil
}

// Poll runs one cycle and returns what it detected. When the directory
// cannot be read the previous snapshot is kept and no changes are reported.
func (m *Monitor) Poll() detect.Changes {
	cur, err := detect.Take(m.store.WatchDir(), savefile.Extension)
	if err != nil {
		slog.Error("monitor: snapshot failed", "dir", m.store.WatchDir(), "err", err)
		m.emit(types.Event{Kind: types.EventError, Op: types.OpSnapshot, Message: err.Error()})
		return detect.Changes{}
	}

	changes := detect.Diff(m.prev, cur)

	for _, name := range changes.Changed() {
		slog.Info("monitor: detected save update", "file", name)
		m.backup(name)
	}

	for _, name := range changes.Deleted {
		slog.Info("monitor: save deleted, restoring", "file", name)
		if m.restore(name) {
			cur[name] = m.now()
		}
	}

	m.prev = cur
	m.stats.RecordPoll(m.now(), len(cur))
	return changes
}

func (m *Monitor) backup(name string) {
	e, err := m.store.Put(filepath.Join(m.store.WatchDir(), name), m.idx)
	if err != nil {
		slog.Error("monitor: backup failed", "file", name, "err", err)
		m.emit(types.Event{Kind: types.EventError, Op: types.OpBackup, File: name, Message: err.Error()})
		return
	}
	ev := types.Event{Kind: types.EventBackup, File: name, Backup: e.Name}
	if e.Info.HasKey {
		ev.SessionKey = string(e.Info.SessionKey)
	}
	m.emit(ev)
}

// restore reports whether name is back in the watched directory.
func (m *Monitor) restore(name string) bool {
	e, err := m.store.RestoreLatest(name, m.idx)
	switch {
	case err == nil:
		m.emit(types.Event{
			Kind:       types.EventRestore,
			File:       name,
			Backup:     e.Name,
			SessionKey: string(e.Info.SessionKey),
		})
		return true
	case errors.Is(err, retention.ErrUnknownSession), errors.Is(err, retention.ErrNoBackup):
		slog.Info("monitor: no backup available", "file", name, "reason", err)
		m.emit(types.Event{Kind: types.EventRestoreSkipped, File: name, Message: err.Error()})
	default:
		slog.Error("monitor: restore failed", "file", name, "err", err)
		m.emit(types.Event{Kind: types.EventError, Op: types.OpRestore, File: name, Message: err.Error()})
	}
	return false
}

func (m *Monitor) emit(ev types.Event) {
	ev.Time = m.now()
	m.stats.Observe(ev)
	for _, o := range m.observers {
		o.Observe(ev)
	}
}
