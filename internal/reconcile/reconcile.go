// Package reconcile translates the persisted schedule tree into Schedule values
// and splits them into overdue and pending sets.
package reconcile

import (
	"sort"
	"time"

	"epicscheduler/internal/schedule"
	"epicscheduler/internal/store"
)

type Result struct {
	// Overdue schedules are due at or before now and must run immediately.
	Overdue []schedule.Schedule
	// OverdueKeys are the tree keys of Overdue, in the same order.
	OverdueKeys []string
	Pending     []schedule.Schedule
	Warnings    Warnings
}

// Partition decodes every entry of t in one pass. Entries that cannot be decoded
// are reported and left untouched in the tree.
func Partition(t *store.Tree, now time.Time, loc *time.Location) Result {
	var res Result
	if t == nil {
		return res
	}
	for _, key := range t.Keys() {
		node, _ := t.Get(key)
		s, ws, ok := Decode(key, node, loc)
		res.Warnings = append(res.Warnings, ws...)
		if !ok {
			continue
		}
		if s.Remaining(now) <= 0 {
			res.Overdue = append(res.Overdue, s)
			res.OverdueKeys = append(res.OverdueKeys, key)
			continue
		}
		res.Pending = append(res.Pending, s)
	}
	sort.SliceStable(res.Pending, func(i, j int) bool { return res.Pending[i].Due.Before(res.Pending[j].Due) })
	return res
}
