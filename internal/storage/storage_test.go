package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	logx "epicscheduler/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		require.NoError(t, err)
		require.Nil(t, st)
	}
	_, err := Open(Config{Driver: "redis"}, logx.Nop())
	require.Error(t, err)
}

func TestDrivers(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "history.db")
			st, err := Open(Config{Driver: driver, Path: path, BusyTimeout: time.Second}, logx.Nop())
			require.NoError(t, err)
			defer st.Close()

			ctx := context.Background()
			due := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
			for i, ev := range []string{"schedule.set", "schedule.fired", "schedule.cancelled"} {
				require.NoError(t, st.Append(ctx, Entry{
					At:      due.Add(time.Duration(i) * time.Second),
					Event:   ev,
					Key:     "2100-01-01 00:00:00",
					Due:     due,
					Results: i + 1,
					Overdue: i == 1,
				}))
			}

			got, err := st.Recent(ctx, 2)
			require.NoError(t, err)
			require.Len(t, got, 2)
			require.Equal(t, "schedule.cancelled", got[0].Event)
			require.Equal(t, "schedule.fired", got[1].Event)
			require.True(t, got[1].Overdue)
			require.True(t, due.Equal(got[1].Due))
			require.Equal(t, 2, got[1].Results)

			all, err := st.Recent(ctx, 10)
			require.NoError(t, err)
			require.Len(t, all, 3)
		})
	}
}
