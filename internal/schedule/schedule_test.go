package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustKey(t *testing.T, key string) time.Time {
	t.Helper()
	ts, err := ParseKey(key, time.UTC)
	require.NoError(t, err)
	return ts
}

func TestNextRepeat(t *testing.T) {
	t.Parallel()
	due := mustKey(t, "2024-01-01 00:00:00")
	now := mustKey(t, "2024-01-03 00:00:00")
	tests := []struct {
		name string
		skip bool
		want string
	}{
		{name: "catch up", skip: false, want: "2024-01-02 00:00:00"},
		{name: "skip missed", skip: true, want: "2024-01-04 00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(due, nil, 24*time.Hour, tt.skip)
			require.NoError(t, err)
			next, ok := s.Next(now)
			require.True(t, ok)
			require.Equal(t, tt.want, next.Key(time.UTC))
			require.Equal(t, s.Repeat, next.Repeat)
			require.Equal(t, tt.skip, next.SkipMissedRepeats)
		})
	}
}

func TestNextOnTime(t *testing.T) {
	t.Parallel()
	due := mustKey(t, "2024-01-01 00:00:00")
	s, err := New(due, nil, time.Hour, true)
	require.NoError(t, err)
	next, ok := s.Next(due)
	require.True(t, ok)
	require.Equal(t, "2024-01-01 01:00:00", next.Key(time.UTC))

	// Exactly on a boundary counts as missed when skipping.
	next, ok = s.Next(mustKey(t, "2024-01-01 01:00:00"))
	require.True(t, ok)
	require.Equal(t, "2024-01-01 02:00:00", next.Key(time.UTC))
}

func TestNextNonRepeating(t *testing.T) {
	t.Parallel()
	s, err := New(time.Now(), nil, 0, false)
	require.NoError(t, err)
	_, ok := s.Next(time.Now())
	require.False(t, ok)
}

func TestNewRejectsNegativeRepeat(t *testing.T) {
	t.Parallel()
	_, err := New(time.Now(), nil, -time.Second, false)
	require.ErrorIs(t, err, ErrNegativeRepeat)
}

func TestNewTruncatesToSeconds(t *testing.T) {
	t.Parallel()
	due := mustKey(t, "2024-01-01 00:00:00").Add(750 * time.Millisecond)
	s, err := New(due, nil, 0, false)
	require.NoError(t, err)
	require.Equal(t, 0, s.Due.Nanosecond())
}

func TestParseRepeat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{raw: "", want: 0},
		{raw: "86400", want: 24 * time.Hour},
		{raw: "30 days", want: 30 * 24 * time.Hour},
		{raw: "2 Hours", want: 2 * time.Hour},
		{raw: "90m", want: 90 * time.Minute},
	}
	for _, tt := range tests {
		got, err := ParseRepeat(tt.raw)
		require.NoError(t, err, tt.raw)
		require.Equal(t, tt.want, got, tt.raw)
	}

	_, err := ParseRepeat("-5")
	require.ErrorIs(t, err, ErrNegativeRepeat)
	_, err = ParseRepeat("soon")
	require.Error(t, err)

	for _, raw := range []string{"9223372037", "9223372036854775807", "106752 days", "9999999999999 hours"} {
		_, err = ParseRepeat(raw)
		require.ErrorIs(t, err, ErrRepeatTooLong, raw)
	}
	got, err := ParseRepeat("9223372036")
	require.NoError(t, err)
	require.Equal(t, 9223372036*time.Second, got)
}

func TestRemaining(t *testing.T) {
	t.Parallel()
	due := mustKey(t, "2024-01-01 00:00:10")
	s := Schedule{Due: due}
	require.Equal(t, 10*time.Second, s.Remaining(mustKey(t, "2024-01-01 00:00:00")))
	require.LessOrEqual(t, s.Remaining(due), time.Duration(0))
}
