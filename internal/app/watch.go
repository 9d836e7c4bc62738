package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"epicscheduler/internal/config"
	"epicscheduler/internal/scheduler"
	"epicscheduler/internal/store"
	logx "epicscheduler/pkg/logx"
)

// watchSchedules reconciles after external edits of the schedule file. Writes
// made by the scheduler itself are recognized by content hash and ignored.
func watchSchedules(ctx context.Context, st *store.Store, sched *scheduler.Service, log logx.Logger) error {
	log = log.With(logx.String("comp", "schedules.watch"))
	return config.WatchFile(ctx, st.Path(), 500*time.Millisecond, log, func() {
		if !externallyModified(st, log) {
			return
		}
		log.Info("schedule file changed; reconciling")
		if err := sched.Reset(); err != nil {
			log.Error("reconciliation failed", logx.Err(err))
		}
	})
}

func externallyModified(st *store.Store, log logx.Logger) bool {
	h, err := st.FileHash()
	if err != nil {
		log.Warn("hash schedule file failed", logx.Err(err))
		return true
	}
	return h != st.Hash()
}

// startResync runs Reset on spec so timers are re-derived from the wall clock
// after suspends or clock steps.
func startResync(spec cron.Schedule, loc *time.Location, sched *scheduler.Service, log logx.Logger) *cron.Cron {
	log = log.With(logx.String("comp", "resync"))
	c := cron.New(cron.WithLocation(loc))
	c.Schedule(spec, cron.FuncJob(func() {
		log.Debug("periodic reconciliation")
		if err := sched.Reset(); err != nil {
			log.Error("reconciliation failed", logx.Err(err))
		}
	}))
	c.Start()
	return c
}
