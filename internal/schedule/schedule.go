// Package schedule holds the Schedule value and its repeat arithmetic.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"epicscheduler/internal/result"
)

// Layout is the persisted key format of a due timestamp ("yyyy-MM-dd HH:mm:ss").
const Layout = "2006-01-02 15:04:05"

// ErrNegativeRepeat is returned by New for a repeat interval below zero.
var ErrNegativeRepeat = errors.New("schedule can not have a negative repeat interval")

// Schedule is a due timestamp plus the results to run and an optional repeat policy.
// The due timestamp identifies the schedule within the store.
type Schedule struct {
	Due     time.Time
	Results []result.ScheduleResult
	// Repeat is the interval between occurrences; zero means the schedule runs once.
	Repeat time.Duration
	// SkipMissedRepeats advances a late successor past now instead of catching up.
	SkipMissedRepeats bool
}

// New truncates due to whole seconds and validates the repeat interval.
func New(due time.Time, results []result.ScheduleResult, repeat time.Duration, skipMissed bool) (Schedule, error) {
	if repeat < 0 {
		return Schedule{}, ErrNegativeRepeat
	}
	return Schedule{
		Due:               due.Truncate(time.Second),
		Results:           append([]result.ScheduleResult(nil), results...),
		Repeat:            repeat.Truncate(time.Second),
		SkipMissedRepeats: skipMissed,
	}, nil
}

// Key formats the due timestamp in loc (time.Local when nil).
func Key(due time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return due.In(loc).Format(Layout)
}

// ParseKey parses a persisted key in loc (time.Local when nil).
func ParseKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(Layout, strings.TrimSpace(key), loc)
}

func (s Schedule) Key(loc *time.Location) string { return Key(s.Due, loc) }

// Remaining is the whole seconds left until due; zero or less means overdue.
func (s Schedule) Remaining(now time.Time) time.Duration {
	return s.Due.Sub(now).Truncate(time.Second)
}

// Repeats reports whether the schedule has a successor.
func (s Schedule) Repeats() bool { return s.Repeat > 0 }

// Next returns the successor of a repeating schedule that fired at now.
//
// The successor is always one interval after Due. When SkipMissedRepeats is set it is
// advanced further until it lies after now; otherwise a late successor stays in the past
// and fires on the next reconciliation.
func (s Schedule) Next(now time.Time) (Schedule, bool) {
	if s.Repeat <= 0 {
		return Schedule{}, false
	}
	next := s.Due.Add(s.Repeat)
	if s.SkipMissedRepeats {
		for !next.After(now) {
			next = next.Add(s.Repeat)
		}
	}
	succ := s
	succ.Due = next
	return succ, true
}

// Equal reports semantic equality.
func (s Schedule) Equal(o Schedule) bool {
	if !s.Due.Equal(o.Due) || s.Repeat != o.Repeat || s.SkipMissedRepeats != o.SkipMissedRepeats || len(s.Results) != len(o.Results) {
		return false
	}
	for i := range s.Results {
		if !s.Results[i].Equal(o.Results[i]) {
			return false
		}
	}
	return true
}

func (s Schedule) String() string {
	var b strings.Builder
	b.WriteString(Key(s.Due, s.Due.Location()))
	if s.Repeats() {
		fmt.Fprintf(&b, " (every %s", s.Repeat)
		if s.SkipMissedRepeats {
			b.WriteString(", skipping missed")
		}
		b.WriteString(")")
	}
	for _, r := range s.Results {
		b.WriteString("\n  ")
		b.WriteString(r.String())
	}
	return b.String()
}
