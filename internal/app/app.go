// Package app wires the scheduler daemon together.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"
	"github.com/spf13/afero"

	"epicscheduler/internal/config"
	"epicscheduler/internal/debugserver"
	"epicscheduler/internal/eventbus"
	"epicscheduler/internal/executor"
	"epicscheduler/internal/scheduler"
	"epicscheduler/internal/storage"
	"epicscheduler/internal/store"
	"epicscheduler/internal/supervisor"
	"epicscheduler/internal/target"
	logx "epicscheduler/pkg/logx"
)

// Collaborators replaces the log-backed defaults; nil fields keep the default.
type Collaborators struct {
	Directory   target.Directory
	Renderer    executor.Renderer
	Commands    executor.CommandProcessor
	Substituter executor.Substituter
	Translator  executor.Translator
}

type App struct {
	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	loc     *time.Location
	store   *store.Store
	history storage.Store
	dir     *target.Static
	exec    *executor.Executor
	sched   *scheduler.Service
	cron    *cron.Cron
}

func New(cfgPath string, col Collaborators) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logConfig(cfg))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	log = log.With(logx.String("comp", "app"))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	history, err := OpenHistory(cfg, log)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()
	st := store.New(afero.NewOsFs(), cfg.Schedules.Path, log)

	static := target.NewStatic(Audience(cfg))
	var dir target.Directory = static
	if col.Directory != nil {
		dir = col.Directory
	}
	subst := col.Substituter
	if subst == nil {
		subst = executor.Placeholders{}
	}
	markup := col.Translator
	if markup == nil {
		markup = executor.Ampersand{}
	}
	exec := executor.New(target.NewResolver(dir), executor.Options{
		Renderer:      col.Renderer,
		Commands:      col.Commands,
		Substituter:   subst,
		Translator:    markup,
		DispatchRate:  cfg.Executor.DispatchRate,
		DispatchBurst: cfg.Executor.DispatchBurst,
		Logger:        log,
	})

	sched := scheduler.New(scheduler.Options{
		Store:    st,
		Executor: exec,
		Location: loc,
		Bus:      bus,
		Logger:   log,
	})

	return &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		loc:     loc,
		store:   st,
		history: history,
		dir:     static,
		exec:    exec,
		sched:   sched,
	}, nil
}

// Scheduler exposes Set, Cancel, Reset and Pending to embedders.
func (a *App) Scheduler() *scheduler.Service { return a.sched }

// Done is closed when the supervisor context is cancelled.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	cfg := a.cfgm.Get()

	if a.history != nil {
		events, unsub := a.bus.Subscribe(256, "schedule.")
		a.sup.Go0("history.record", func(c context.Context) {
			defer unsub()
			recordHistory(c, events, a.history, a.log)
		})
	}

	if a.log.Enabled(logx.LevelDebug) {
		events, unsub := a.bus.Subscribe(128)
		a.sup.Go0("eventbus.log", func(c context.Context) {
			defer unsub()
			for {
				select {
				case <-c.Done():
					return
				case e, ok := <-events:
					if !ok {
						return
					}
					a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
				}
			}
		})
	}

	// Subscribers are attached first so overdue runs are recorded.
	// A corrupt schedule file is not fatal; the watcher or the next resync retries.
	if err := a.sched.Reset(); err != nil {
		a.log.Error("initial reconciliation failed", logx.Err(err))
	}

	if cfg.Schedules.Watch {
		a.sup.GoRestart("schedules.watch", func(c context.Context) error {
			return watchSchedules(c, a.store, a.sched, a.log)
		}, time.Second, 30*time.Second)
	}

	spec, err := cfg.ResyncSchedule()
	if err != nil {
		return err
	}
	if spec != nil {
		a.cron = startResync(spec, a.loc, a.sched, a.log)
	}

	if d := cfg.Debug; d != nil && d.Enabled {
		srv := debugserver.New(debugserver.Config{
			Addr:          d.Addr,
			Token:         d.Token,
			AllowInsecure: d.AllowInsecure,
			Pprof:         d.Pprof,
		}, a.sched, a.loc, a.log)
		a.sup.GoRestart("debug.serve", srv.Run, 500*time.Millisecond, 10*time.Second)
	}

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.applyLoop(c, sub)
	})
	a.sup.GoRestart("config.watch", a.cfgm.Watch, time.Second, 30*time.Second)

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("sd_notify ready sent")
	}
	a.log.Info("scheduler started",
		logx.String("schedules", a.store.Path()),
		logx.Int("pending", a.sched.Len()),
		logx.String("timezone", a.loc.String()),
	)
	return nil
}

func (a *App) applyLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config.
		drain:
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					break drain
				}
			}
			a.apply(lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

func (a *App) apply(prev, next *config.Config) {
	sections, attrs := config.SummarizeConfigChange(prev, next)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)

	for _, s := range sections {
		switch s {
		case "logging":
			if err := a.logs.Apply(logConfig(next)); err != nil {
				a.log.Warn("log file unavailable", logx.Err(err))
			}
		case "executor":
			a.exec.SetDispatchRate(next.Executor.DispatchRate, next.Executor.DispatchBurst)
		case "audience":
			a.dir.Replace(Audience(next))
		case "schedules", "history", "debug":
			a.log.Warn(s + " config changed; restart required for changes to take effect")
		}
	}
}

// Stop shuts down in reverse start order and flushes history.
func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	var errs []error
	if a.cron != nil {
		select {
		case <-a.cron.Stop().Done():
		case <-ctx.Done():
		}
	}
	if a.sup != nil {
		if err := a.sup.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
	}
	if err := a.sched.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.log.Info("scheduler stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return errors.Join(errs...)
}

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}
