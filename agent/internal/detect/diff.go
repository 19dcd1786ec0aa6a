package detect

import "sort"

// Changes is the classification of one snapshot transition.
// Every slice is sorted by filename.
type Changes struct {
	New     []string
	Updated []string
	Deleted []string
}

// Diff compares cur against prev. A nil prev is treated as empty.
func Diff(prev, cur Snapshot) Changes {
	var c Changes
	for name, mtime := range cur {
		before, ok := prev[name]
		switch {
		case !ok:
			c.New = append(c.New, name)
		case mtime.After(before):
			c.Updated = append(c.Updated, name)
		}
	}
	for name := range prev {
		if _, ok := cur[name]; !ok {
			c.Deleted = append(c.Deleted, name)
		}
	}
	sort.Strings(c.New)
	sort.Strings(c.Updated)
	sort.Strings(c.Deleted)
	return c
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.New) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0
}

// Changed returns New and Updated merged and sorted. Both are handled the
// same way by the monitor.
func (c Changes) Changed() []string {
	out := make([]string, 0, len(c.New)+len(c.Updated))
	out = append(out, c.New...)
	out = append(out, c.Updated...)
	sort.Strings(out)
	return out
}
