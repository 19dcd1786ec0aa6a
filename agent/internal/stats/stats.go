package stats

import (
	"fmt"
	"io"
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/savewarden/savewarden/pkg/types"
)

// errorOps is the fixed label set of savewarden_errors_total.
var errorOps = []string{types.OpBackup, types.OpRestore, types.OpSnapshot}

// Summary is a point-in-time copy of the counters.
type Summary struct {
	Backups        uint64            `json:"backups"`
	Restores       uint64            `json:"restores"`
	RestoreSkipped uint64            `json:"restore_skipped"`
	Errors         map[string]uint64 `json:"errors"`
	Polls          uint64            `json:"polls"`
	TrackedSaves   int               `json:"tracked_saves"`
	LastPoll       time.Time         `json:"last_poll"`
}

// Counters accumulates monitor outcomes. The monitor writes, the status
// server reads; all methods are safe for concurrent use.
type Counters struct {
	mu  sync.Mutex
	sum Summary
}

// New returns zeroed Counters.
func New() *Counters {
	c := &Counters{}
	c.sum.Errors = make(map[string]uint64, len(errorOps))
	for _, op := range errorOps {
		c.sum.Errors[op] = 0
	}
	return c
}

// Observe counts ev.
func (c *Counters) Observe(ev types.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ev.Kind {
	case types.EventBackup:
		c.sum.Backups++
	case types.EventRestore:
		c.sum.Restores++
	case types.EventRestoreSkipped:
		c.sum.RestoreSkipped++
	case types.EventError:
		c.sum.Errors[ev.Op]++
	}
}

// RecordPoll counts one completed poll cycle that saw tracked save files.
func (c *Counters) RecordPoll(at time.Time, tracked int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sum.Polls++
	c.sum.LastPoll = at
	c.sum.TrackedSaves = tracked
}

// Summary returns a copy of the current counters.
func (c *Counters) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.sum
	out.Errors = make(map[string]uint64, len(c.sum.Errors))
	for k, v := range c.sum.Errors {
		out.Errors[k] = v
	}
	return out
}

// Families renders the counters as Prometheus metric families.
func (c *Counters) Families() []*dto.MetricFamily {
	s := c.Summary()

	errs := &dto.MetricFamily{
		Name: ptr("savewarden_errors_total"),
		Help: ptr("Failed monitor operations by step."),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, op := range errorOps {
		errs.Metric = append(errs.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: ptr("op"), Value: ptr(op)}},
			Counter: &dto.Counter{Value: ptr(float64(s.Errors[op]))},
		})
	}

	var lastPoll float64
	if !s.LastPoll.IsZero() {
		lastPoll = float64(s.LastPoll.UnixNano()) / 1e9
	}

	return []*dto.MetricFamily{
		counter("savewarden_backups_total", "Save files copied into the backup directory.", s.Backups),
		counter("savewarden_restores_total", "Deleted saves restored from a backup.", s.Restores),
		counter("savewarden_restores_skipped_total", "Deleted saves with no backup to restore.", s.RestoreSkipped),
		errs,
		counter("savewarden_polls_total", "Completed poll cycles.", s.Polls),
		gauge("savewarden_tracked_saves", "Save files present at the last poll.", float64(s.TrackedSaves)),
		gauge("savewarden_last_poll_timestamp_seconds", "Unix time of the last completed poll.", lastPoll),
	}
}

// WriteText writes the counters to w in the Prometheus text format.
func (c *Counters) WriteText(w io.Writer) error {
	for _, mf := range c.Families() {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("stats: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func counter(name, help string, v uint64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: ptr(float64(v))}}},
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: ptr(v)}}},
	}
}

func ptr[T any](v T) *T { return &v }
