package cmdline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raulk/clock"
	"github.com/stretchr/testify/require"

	"epicscheduler/internal/reconcile"
	"epicscheduler/internal/result"
	"epicscheduler/internal/store"
	logx "epicscheduler/pkg/logx"
)

const steveID = "4b3a2e6c-55a4-4bd5-9b3c-6d7c1d1f9e11"

type harness struct {
	cfgPath   string
	schedules string
	clk       *clock.Mock
	out       bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		cfgPath:   filepath.Join(dir, "config.yml"),
		schedules: filepath.Join(dir, "schedules.yml"),
		clk:       clock.NewMock(),
	}
	h.clk.Set(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	cfg := `logging: {level: error}
schedules:
  path: ` + h.schedules + `
  timezone: UTC
history:
  driver: file
  path: ` + filepath.Join(dir, "history") + `
audience:
  zones:
    - name: world
      participants:
        - {id: ` + steveID + `, name: Steve}
`
	require.NoError(t, os.WriteFile(h.cfgPath, []byte(cfg), 0o644))
	return h
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	full := append([]string{"epicscheduler", "--config", h.cfgPath}, args...)
	return New(&h.out, h.clk, "test").Run(full)
}

func (h *harness) partition(t *testing.T) reconcile.Result {
	t.Helper()
	tree, err := store.New(nil, h.schedules, logx.Nop()).Load()
	require.NoError(t, err)
	return reconcile.Partition(tree, h.clk.Now(), time.UTC)
}

func TestScheduleAndUnschedule(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("schedule", "2024-06-01", "13:00:00", "chatmessage", "Steve", "hello", "world"))
	require.Contains(t, h.out.String(), "in 1 hour")

	res := h.partition(t)
	require.Len(t, res.Pending, 1)
	sr := res.Pending[0].Results[0]
	require.Equal(t, result.KindChatMessage, sr.Kind)
	require.Equal(t, steveID, sr.Target)
	require.Equal(t, "hello world", sr.Results[0].Text())

	require.NoError(t, h.run("unschedule", "2024-06-01", "13:00:00"))
	require.Empty(t, h.partition(t).Pending)

	err := h.run("unschedule", "2024-06-01", "13:00:00")
	require.ErrorIs(t, err, errUnknownSchedule)
}

func TestScheduleRepeatAndAppend(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("schedule", "--repeat", "1 day", "--skip-missed",
		"2024-06-02", "08:00:00", "title", "world", "Morning", "rise"))
	require.NoError(t, h.run("schedule", "--append",
		"2024-06-02", "08:00:00", "command", "say", "good", "morning"))

	res := h.partition(t)
	require.Len(t, res.Pending, 1)
	sc := res.Pending[0]
	require.Equal(t, 24*time.Hour, sc.Repeat)
	require.True(t, sc.SkipMissedRepeats)
	require.Len(t, sc.Results, 2)
	require.Equal(t, result.KindTitle, sc.Results[0].Kind)
	require.Equal(t, result.KindCommand, sc.Results[1].Kind)

	// Without --append the schedule is replaced.
	require.NoError(t, h.run("schedule", "2024-06-02", "08:00:00", "actionbar", "EVERYONE", "hi"))
	res = h.partition(t)
	require.Len(t, res.Pending[0].Results, 1)
	require.Zero(t, res.Pending[0].Repeat)
}

func TestScheduleRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	require.Error(t, h.run("schedule", "tomorrow", "noon", "chatmessage", "EVERYONE", "x"))
	require.Error(t, h.run("schedule", "2024-06-01", "13:00:00", "fireworks", "EVERYONE", "x"))
	require.Error(t, h.run("schedule", "--repeat", "-5", "2024-06-01", "13:00:00", "chatmessage", "EVERYONE", "x"))
	_, err := os.Stat(h.schedules)
	require.True(t, os.IsNotExist(err))
}

func TestInfo(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("info"))
	require.Contains(t, h.out.String(), "no schedules")

	require.NoError(t, h.run("schedule", "2024-06-01", "11:00:00", "chatmessage", "EVERYONE", "late"))
	require.NoError(t, h.run("schedule", "2024-06-01", "14:30:00", "bossbar", "EVERYONE", "Soon", "RED", "SOLID", "0.5"))

	require.NoError(t, h.run("info"))
	out := h.out.String()
	require.Contains(t, out, "2 schedule(s)")
	require.Contains(t, out, "2024-06-01 11:00:00  overdue")
	require.Contains(t, out, "2024-06-01 14:30:00  in 2 hours 30 minutes")

	require.NoError(t, h.run("info", "2024-06-01", "14:30:00"))
	require.Contains(t, h.out.String(), `"Soon" RED SOLID 0.50`)

	require.ErrorIs(t, h.run("info", "2024-06-03", "00:00:00"), errUnknownSchedule)
}

func TestCheckReportsWarnings(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("schedule", "2024-06-01", "13:00:00", "chatmessage", "EVERYONE", "ok"))
	require.NoError(t, h.run("check"))
	require.Contains(t, h.out.String(), "1 pending, 0 overdue")

	b, err := os.ReadFile(h.schedules)
	require.NoError(t, err)
	broken := string(b) + "\nnot a date:\n  Chat Messages:\n    Target: EVERYONE\n"
	require.NoError(t, os.WriteFile(h.schedules, []byte(broken), 0o644))

	err = h.run("check")
	require.Error(t, err)
	require.True(t, strings.Contains(h.out.String(), "warning:"), h.out.String())
}

func TestHistoryEmpty(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("history", "--limit", "5"))
	require.Empty(t, strings.TrimSpace(h.out.String()))
}
