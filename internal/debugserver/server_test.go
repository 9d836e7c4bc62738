package debugserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"epicscheduler/internal/result"
	"epicscheduler/internal/schedule"
	logx "epicscheduler/pkg/logx"
)

type fixedSource []schedule.Schedule

func (f fixedSource) Pending() []schedule.Schedule { return f }

func TestSchedulesEndpoint(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	sr, err := result.New(result.KindChatMessage, result.PickAll, "EVERYONE", result.ChatMessage("hi"))
	require.NoError(t, err)
	sc, err := schedule.New(now.Add(90*time.Second), []result.ScheduleResult{sr}, time.Hour, true)
	require.NoError(t, err)

	s := New(Config{}, fixedSource{sc}, time.UTC, logx.Nop())
	s.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schedules", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []pendingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "2024-06-01 12:01:30", got[0].Key)
	require.Equal(t, int64(90), got[0].InSeconds)
	require.Equal(t, int64(3600), got[0].RepeatS)
	require.True(t, got[0].Skip)
	require.Len(t, got[0].Results, 1)
}

func TestAuth(t *testing.T) {
	t.Parallel()
	h := New(Config{Token: "secret"}, fixedSource{}, time.UTC, logx.Nop()).Handler()
	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{name: "missing", target: "/healthz", want: http.StatusUnauthorized},
		{name: "query", target: "/healthz?token=secret", want: http.StatusOK},
		{name: "bad query", target: "/healthz?token=nope", want: http.StatusUnauthorized},
		{name: "bearer", target: "/healthz", header: "Bearer secret", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestPprofOptIn(t *testing.T) {
	t.Parallel()
	off := New(Config{}, fixedSource{}, time.UTC, logx.Nop()).Handler()
	rec := httptest.NewRecorder()
	off.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	on := New(Config{Pprof: true}, fixedSource{}, time.UTC, logx.Nop()).Handler()
	rec = httptest.NewRecorder()
	on.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRefusesPublicBindWithoutToken(t *testing.T) {
	t.Parallel()
	err := New(Config{Addr: "0.0.0.0:0"}, fixedSource{}, time.UTC, logx.Nop()).Run(context.Background())
	require.Error(t, err)
}

func TestRunStopsWithContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Config{Addr: "127.0.0.1:0"}, fixedSource{}, time.UTC, logx.Nop()).Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("debug server did not stop")
	}
}
