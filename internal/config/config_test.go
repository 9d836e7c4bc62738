package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
logging: {level: debug, console: true, file: {enabled: false, path: ./x.log}}
schedules: {path: ./schedules.yml, watch: true, resync: "@every 1h", timezone: UTC}
executor: {dispatch_rate: 5, dispatch_burst: 2}
history: {driver: sqlite, path: ./history.db, busy_timeout: 1s}
audience:
  zones:
    - name: world
      participants:
        - {id: 8667ba71-b85a-4004-af54-457a9734eed7, name: Steve}
`

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	m := NewManager(writeFile(t, "config.yml", sampleYAML))
	cfg, err := m.Load()
	require.NoError(t, err)
	require.Same(t, cfg, m.Get())

	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "./schedules.yml", cfg.Schedules.Path)
	require.Equal(t, 5.0, cfg.Executor.DispatchRate)
	require.Equal(t, "sqlite", cfg.History.Driver)
	require.Len(t, cfg.Audience.Zones[0].Participants, 1)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)

	sched, err := cfg.ResyncSchedule()
	require.NoError(t, err)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, from.Add(time.Hour), sched.Next(from))
}

func TestLoadJSONDefaults(t *testing.T) {
	t.Parallel()
	m := NewManager(writeFile(t, "config.json", `{"logging":{"console":true},"schedules":{"path":"s.yml"}}`))
	cfg, err := m.Load()
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 1, cfg.Executor.DispatchBurst)
	require.Nil(t, cfg.History)

	sched, err := cfg.ResyncSchedule()
	require.NoError(t, err)
	require.Nil(t, sched)
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		file string
		data string
	}{
		{name: "unknown field", file: "c.json", data: `{"schedules":{"path":"s.yml"},"telegram":{}}`},
		{name: "trailing data", file: "c.json", data: `{"schedules":{"path":"s.yml"}}{}`},
		{name: "unknown yaml field", file: "c.yml", data: "schedules: {path: s.yml}\ntelegram: {}\n"},
		{name: "unknown nested yaml field", file: "c.yaml", data: "schedules: {path: s.yml, folder: x}\n"},
		{name: "second yaml document", file: "c.yml", data: "schedules: {path: s.yml}\n---\nschedules: {path: t.yml}\n"},
		{name: "missing path", file: "c.yml", data: "logging: {level: info}\n"},
		{name: "bad resync", file: "c.yml", data: "schedules: {path: s.yml, resync: 'every hour'}\n"},
		{name: "bad timezone", file: "c.yml", data: "schedules: {path: s.yml, timezone: Mars/Olympus}\n"},
		{name: "bad participant id", file: "c.yml", data: "schedules: {path: s.yml}\naudience: {zones: [{name: w, participants: [{id: nope}]}]}\n"},
		{name: "undashed participant id", file: "c.yml", data: "schedules: {path: s.yml}\naudience: {zones: [{name: w, participants: [{id: 8667ba71b85a4004af54457a9734eed7}]}]}\n"},
		{name: "bad busy timeout", file: "c.yml", data: "schedules: {path: s.yml}\nhistory: {driver: sqlite, path: h.db, busy_timeout: soon}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(writeFile(t, tt.file, tt.data)).Load()
			require.Error(t, err)
		})
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	a := &Config{Schedules: SchedulesConfig{Path: "a.yml"}}
	b := &Config{Schedules: SchedulesConfig{Path: "b.yml"}, Executor: ExecutorConfig{DispatchRate: 1}}
	changed, _ := SummarizeConfigChange(a, b)
	require.Equal(t, []string{"schedules", "executor"}, changed)

	changed, _ = SummarizeConfigChange(a, a)
	require.Empty(t, changed)
}

func TestWatchPublishesChange(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yml", "schedules: {path: a.yml}\n")
	m := NewManager(path)
	_, err := m.Load()
	require.NoError(t, err)

	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Watch(ctx) }()

	// Give the watcher time to attach before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("schedules: {path: b.yml}\n"), 0o644))

	select {
	case cfg := <-ch:
		require.Equal(t, "b.yml", cfg.Schedules.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no config published")
	}
}

func TestBusyTimeoutOr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "", want: time.Second},
		{raw: "0s", want: time.Second},
		{raw: " 250ms ", want: 250 * time.Millisecond},
		{raw: "-1s", wantErr: true},
		{raw: "soon", wantErr: true},
	}
	for _, tt := range tests {
		got, err := (&HistoryConfig{BusyTimeout: tt.raw}).BusyTimeoutOr(time.Second)
		if tt.wantErr {
			require.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		require.Equal(t, tt.want, got, tt.raw)
	}
}
