package schedule

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var repeatUnits = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
}

// ErrRepeatTooLong is returned for intervals that do not fit a time.Duration.
var ErrRepeatTooLong = errors.New("repeat interval too long")

// ParseRepeat parses a repeat interval.
//
// Accepted forms:
//   - whole seconds: "86400"
//   - "<n> <unit>" with units seconds/minutes/hours/days: "30 days", "2 hours"
//   - Go duration: "36h", "90m"
//
// Blank input is zero (no repeat).
func ParseRepeat(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return scaleRepeat(n, time.Second)
	}
	if fields := strings.Fields(s); len(fields) == 2 {
		n, err := strconv.ParseInt(fields[0], 10, 64)
		unit, ok := repeatUnits[strings.ToLower(fields[1])]
		if err == nil && ok {
			return scaleRepeat(n, unit)
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid repeat %q (use seconds, '<n> <unit>' like '30 days', or a duration like '36h')", raw)
	}
	if d < 0 {
		return 0, ErrNegativeRepeat
	}
	return d.Truncate(time.Second), nil
}

func scaleRepeat(n int64, unit time.Duration) (time.Duration, error) {
	if n < 0 {
		return 0, ErrNegativeRepeat
	}
	if n > int64(math.MaxInt64/unit) {
		return 0, ErrRepeatTooLong
	}
	return time.Duration(n) * unit, nil
}

// RepeatSeconds is the persisted form of a repeat interval.
func RepeatSeconds(d time.Duration) int64 { return int64(d / time.Second) }
