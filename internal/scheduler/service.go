package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/raulk/clock"
	"go.yaml.in/yaml/v3"

	"epicscheduler/internal/eventbus"
	"epicscheduler/internal/reconcile"
	"epicscheduler/internal/result"
	"epicscheduler/internal/schedule"
	"epicscheduler/internal/store"
	logx "epicscheduler/pkg/logx"
)

var (
	// ErrNoResults is returned by Set for a schedule without results.
	ErrNoResults = errors.New("schedule has no results")
	ErrClosed    = errors.New("scheduler closed")
)

// asyncSettleAfter is the repeat interval from which settling moves off the
// timer goroutine. Non-repeating schedules always settle asynchronously.
const asyncSettleAfter = 600 * time.Second

// Executor runs one ScheduleResult.
type Executor interface {
	Execute(ctx context.Context, sr result.ScheduleResult)
}

type Options struct {
	Store    *store.Store
	Executor Executor

	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Location of persisted keys; time.Local when nil.
	Location *time.Location

	Bus    eventbus.Bus
	Logger logx.Logger
}

type entry struct {
	sched schedule.Schedule
	timer *clock.Timer
	seq   uint64
}

type Service struct {
	st   *store.Store
	exec Executor
	clk  clock.Clock
	loc  *time.Location
	bus  eventbus.Bus
	log  logx.Logger

	runCtx    context.Context
	runCancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*entry
	// firing holds entries whose callback has started but whose settle has
	// not finished. They are gone from entries but still on disk.
	firing map[string]*entry
	seq    uint64
	gen    uint64
	closed bool

	inflight sync.WaitGroup
}

func New(opts Options) *Service {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	log := opts.Logger
	if log.IsZero() {
		log = logx.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		st:        opts.Store,
		exec:      opts.Executor,
		clk:       clk,
		loc:       loc,
		bus:       opts.Bus,
		log:       log.With(logx.String("comp", "scheduler")),
		runCtx:    ctx,
		runCancel: cancel,
		entries:   make(map[string]*entry),
		firing:    make(map[string]*entry),
	}
}

// Set persists sc, replacing any schedule with the same due time, then arms its
// timer. The timer is left untouched when persisting fails.
func (s *Service) Set(sc schedule.Schedule) error {
	if len(sc.Results) == 0 {
		return ErrNoResults
	}
	node, err := reconcile.Encode(sc)
	if err != nil {
		return err
	}
	key := sc.Key(s.loc)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	err = s.st.Update(func(t *store.Tree) error {
		t.Set(key, node)
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist schedule %s: %w", key, err)
	}
	// A callback still firing at this key no longer owns it.
	delete(s.firing, key)
	s.register(key, sc, s.clk.Now())
	s.publish(EventSet, s.eventData(key, sc))
	s.log.Info("schedule set", logx.String("due", key), logx.Int("results", len(sc.Results)), logx.Duration("repeat", sc.Repeat))
	return nil
}

// Cancel removes sc from the store and stops its timer. A schedule without a
// registered timer is left alone.
func (s *Service) Cancel(sc schedule.Schedule) error {
	key := sc.Key(s.loc)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	err := s.st.Update(func(t *store.Tree) error {
		t.Remove(key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist cancel %s: %w", key, err)
	}
	e.timer.Stop()
	delete(s.entries, key)
	s.publish(EventCancelled, s.eventData(key, e.sched))
	s.log.Info("schedule cancelled", logx.String("due", key))
	return nil
}

// Reset drops every timer and rebuilds them from the store. Overdue schedules
// are removed from the store, or advanced to their successor, in a single save
// and then executed before Reset returns.
//
// If the store cannot be loaded the in-memory tree is cleared, no timer is
// armed and the load error is returned. The file itself is not modified.
func (s *Service) Reset() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.stopAllLocked()
	s.gen++
	gen := s.gen

	tree, err := s.st.Load()
	if err != nil {
		s.st.Clear()
		s.mu.Unlock()
		s.log.Error("load schedules failed", logx.Err(err))
		return fmt.Errorf("load schedules: %w", err)
	}

	now := s.clk.Now()
	res := reconcile.Partition(tree, now, s.loc)
	for _, w := range res.Warnings {
		s.log.Warn("schedule entry skipped", logx.String("due", w.Key), logx.String("section", w.Section), logx.Err(w.Err))
	}
	res = s.withoutFiringLocked(res)

	var successors []schedule.Schedule
	if len(res.Overdue) > 0 {
		for _, key := range res.OverdueKeys {
			tree.Remove(key)
		}
		for _, o := range res.Overdue {
			next, ok := o.Next(now)
			if !ok {
				continue
			}
			node, err := reconcile.Encode(next)
			if err != nil {
				s.log.Warn("repeat not rescheduled", logx.String("due", o.Key(s.loc)), logx.Err(err))
				continue
			}
			tree.Set(next.Key(s.loc), node)
			successors = append(successors, next)
		}
		if err := s.st.Save(tree); err != nil {
			// The overdue entries stay on disk and may fire again after a restart.
			s.log.Error("persist overdue removal failed", logx.Err(err))
			s.publish(EventPersistFailed, EventData{Overdue: true, Results: len(res.Overdue), Error: err.Error()})
		}
	}

	for _, p := range res.Pending {
		s.register(p.Key(s.loc), p, now)
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	for i, o := range res.Overdue {
		s.log.Info("running overdue schedule", logx.String("due", res.OverdueKeys[i]))
		s.run(o)
		d := s.eventData(res.OverdueKeys[i], o)
		d.Overdue = true
		s.publish(EventFired, d)
	}

	s.mu.Lock()
	if s.gen == gen && !s.closed {
		now = s.clk.Now()
		for _, next := range successors {
			s.register(next.Key(s.loc), next, now)
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	s.log.Info("schedules reconciled",
		logx.Int("pending", n),
		logx.Int("overdue", len(res.Overdue)),
		logx.Int("warnings", len(res.Warnings)),
	)
	return nil
}

// withoutFiringLocked drops overdue schedules that a running callback is
// already executing. Their settle removes them from disk. A schedule that
// differs from the one firing was written since and is kept.
func (s *Service) withoutFiringLocked(res reconcile.Result) reconcile.Result {
	if len(s.firing) == 0 {
		return res
	}
	overdue := res.Overdue[:0:0]
	keys := res.OverdueKeys[:0:0]
	for i, o := range res.Overdue {
		key := res.OverdueKeys[i]
		if e, ok := s.firing[key]; ok {
			if e.sched.Equal(o) {
				s.log.Debug("overdue schedule already firing", logx.String("due", key))
				continue
			}
			delete(s.firing, key)
		}
		overdue = append(overdue, o)
		keys = append(keys, key)
	}
	res.Overdue, res.OverdueKeys = overdue, keys
	return res
}

// Pending returns the schedules whose timers have not yet come due, ordered by
// due time.
func (s *Service) Pending() []schedule.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clk.Now()
	out := make([]schedule.Schedule, 0, len(s.entries))
	for _, e := range s.entries {
		if e.sched.Remaining(now) > 0 {
			out = append(out, e.sched)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Due.Before(out[j].Due) })
	return out
}

// Len is the number of armed timers.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops every timer and waits for in-flight executions and settles.
// When ctx expires first, running executions are cancelled.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.stopAllLocked()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.runCancel()
		return nil
	case <-ctx.Done():
		s.runCancel()
		return ctx.Err()
	}
}

func (s *Service) stopAllLocked() {
	for key, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, key)
	}
}

// register arms a timer for sc under key, replacing any existing one.
// Caller holds s.mu.
func (s *Service) register(key string, sc schedule.Schedule, now time.Time) {
	if old, ok := s.entries[key]; ok {
		old.timer.Stop()
	}
	s.seq++
	seq := s.seq
	delay := sc.Due.Sub(now)
	if delay < 0 {
		delay = 0
	}
	e := &entry{sched: sc, seq: seq}
	// fire takes s.mu and may arm timers, so it never runs on the clock's
	// callback goroutine.
	e.timer = s.clk.AfterFunc(delay, func() { go s.fire(key, seq) })
	s.entries[key] = e
	s.log.Debug("timer armed", logx.String("due", key), logx.Duration("in", delay))
}

func (s *Service) fire(key string, seq uint64) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || e.seq != seq || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.entries, key)
	s.firing[key] = e
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	sc := e.sched
	s.log.Info("schedule due", logx.String("due", key))
	s.run(sc)
	s.publish(EventFired, s.eventData(key, sc))

	if settlesAsync(sc.Repeat) {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.settle(key, e)
		}()
		return
	}
	s.settle(key, e)
}

// settlesAsync reports whether a fired schedule with the given repeat settles
// off the firing goroutine. Short repeats settle inline so the successor is
// armed before the next occurrence could be due.
func settlesAsync(repeat time.Duration) bool {
	return repeat == 0 || repeat >= asyncSettleAfter
}

// settle removes a fired schedule from the store and, for repeating schedules,
// writes and arms the successor in the same save.
func (s *Service) settle(key string, e *entry) {
	sc := e.sched
	now := s.clk.Now()
	next, repeats := sc.Next(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A schedule Set, or rewritten and run by Reset, at this key while firing
	// owns the key now.
	replaced := s.firing[key] != e
	if !replaced {
		delete(s.firing, key)
	}

	var (
		nextKey string
		node    *yaml.Node
	)
	if repeats {
		nextKey = next.Key(s.loc)
		n, err := reconcile.Encode(next)
		if err != nil {
			s.log.Warn("repeat not rescheduled", logx.String("due", key), logx.Err(err))
			repeats = false
		} else {
			node = n
		}
	}

	err := s.st.Update(func(t *store.Tree) error {
		if !replaced {
			t.Remove(key)
		}
		if repeats {
			t.Set(nextKey, node)
		}
		return nil
	})
	if err != nil {
		s.log.Error("persist settle failed", logx.String("due", key), logx.Err(err))
		d := s.eventData(key, sc)
		d.Error = err.Error()
		s.publish(EventPersistFailed, d)
	}

	if repeats && !s.closed {
		s.register(nextKey, next, now)
		s.log.Info("schedule repeated", logx.String("due", key), logx.String("next", nextKey))
	}
}

func (s *Service) run(sc schedule.Schedule) {
	if s.exec == nil {
		return
	}
	for _, sr := range sc.Results {
		s.exec.Execute(s.runCtx, sr)
	}
}

func (s *Service) eventData(key string, sc schedule.Schedule) EventData {
	return EventData{Key: key, Due: sc.Due, Repeat: sc.Repeat, Results: len(sc.Results)}
}
