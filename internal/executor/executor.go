// Package executor runs the results of a ScheduleResult against its audience.
package executor

import (
	"context"

	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"epicscheduler/internal/result"
	"epicscheduler/internal/target"
	logx "epicscheduler/pkg/logx"
)

// Renderer presents targetable effects to a single participant.
type Renderer interface {
	ActionBar(ctx context.Context, p target.Participant, text string) error
	BossBar(ctx context.Context, p target.Participant, bar result.BossBar) error
	Chat(ctx context.Context, p target.Participant, text string) error
	Title(ctx context.Context, p target.Participant, title result.TitleOverlay) error
}

// CommandProcessor dispatches a command. p is nil for unaddressed console commands.
type CommandProcessor interface {
	Dispatch(ctx context.Context, as result.Executor, p *target.Participant, command string) error
}

// Substituter expands per-participant variables. p may be nil.
type Substituter interface {
	Substitute(p *target.Participant, text string) string
}

// Translator turns markup into its rendered form.
type Translator interface {
	Translate(text string) string
}

// Resolver maps a target specifier to its audience.
type Resolver interface {
	Resolve(spec string) []target.Participant
}

type Options struct {
	Renderer    Renderer
	Commands    CommandProcessor
	Substituter Substituter
	Translator  Translator

	// DispatchRate limits command dispatches per second; zero means unlimited.
	DispatchRate  float64
	DispatchBurst int

	Logger logx.Logger
}

type Executor struct {
	resolver Resolver
	render   Renderer
	commands CommandProcessor
	subst    Substituter
	markup   Translator
	limiter  *rate.Limiter
	log      logx.Logger
}

// New fills unset collaborators with the log-backed and identity defaults.
func New(resolver Resolver, opts Options) *Executor {
	log := opts.Logger
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "executor"))

	e := &Executor{
		resolver: resolver,
		render:   opts.Renderer,
		commands: opts.Commands,
		subst:    opts.Substituter,
		markup:   opts.Translator,
		log:      log,
	}
	if e.render == nil {
		e.render = LogRenderer{Log: log}
	}
	if e.commands == nil {
		e.commands = LogCommands{Log: log}
	}
	if e.subst == nil {
		e.subst = Identity{}
	}
	if e.markup == nil {
		e.markup = Identity{}
	}
	e.limiter = newLimiter(opts.DispatchRate, opts.DispatchBurst)
	return e
}

func newLimiter(perSec float64, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if perSec <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(perSec), burst)
}

// SetDispatchRate replaces the command pacing, e.g. after a config reload.
func (e *Executor) SetDispatchRate(perSec float64, burst int) {
	if burst <= 0 {
		burst = 1
	}
	if perSec <= 0 {
		e.limiter.SetLimit(rate.Inf)
	} else {
		e.limiter.SetLimit(rate.Limit(perSec))
	}
	e.limiter.SetBurst(burst)
}

// Execute runs sr once. RANDOM runs a single uniformly chosen result, ALL runs
// every result in order. Failures are logged; they never stop sibling effects.
func (e *Executor) Execute(ctx context.Context, sr result.ScheduleResult) {
	if len(sr.Results) == 0 {
		return
	}
	picked := sr.Results
	if sr.Pick == result.PickRandom {
		picked = []result.Result{lo.Sample(sr.Results)}
	}

	if sr.Kind == result.KindCommand {
		for _, r := range picked {
			e.runCommands(ctx, r.Commands())
		}
		return
	}

	audience := e.resolve(sr.Target)
	if len(audience) == 0 {
		e.log.Debug("no audience, skipped", logx.String("kind", sr.Kind.String()), logx.String("target", result.DisplayTarget(sr.Target)))
		return
	}
	for _, r := range picked {
		e.renderAll(ctx, r, audience)
	}
}

func (e *Executor) resolve(spec string) []target.Participant {
	if e.resolver == nil {
		return nil
	}
	return e.resolver.Resolve(spec)
}

func (e *Executor) renderAll(ctx context.Context, r result.Result, audience []target.Participant) {
	switch r.Kind() {
	case result.KindActionBar:
		text := e.markup.Translate(r.Text())
		for _, p := range audience {
			e.report(r.Kind(), p, e.render.ActionBar(ctx, p, e.subst.Substitute(&p, text)))
		}
	case result.KindChatMessage:
		text := e.markup.Translate(r.Text())
		for _, p := range audience {
			e.report(r.Kind(), p, e.render.Chat(ctx, p, e.subst.Substitute(&p, text)))
		}
	case result.KindBossBar:
		bar := r.BossBar()
		bar.Title = e.markup.Translate(bar.Title)
		for _, p := range audience {
			pb := bar
			pb.Title = e.subst.Substitute(&p, bar.Title)
			e.report(r.Kind(), p, e.render.BossBar(ctx, p, pb))
		}
	case result.KindTitle:
		title := r.Title()
		title.Title = e.markup.Translate(title.Title)
		title.Subtitle = e.markup.Translate(title.Subtitle)
		for _, p := range audience {
			pt := title
			pt.Title = e.subst.Substitute(&p, title.Title)
			pt.Subtitle = e.subst.Substitute(&p, title.Subtitle)
			e.report(r.Kind(), p, e.render.Title(ctx, p, pt))
		}
	default:
		e.log.Warn("result kind not renderable", logx.String("kind", r.Kind().String()))
	}
}

func (e *Executor) report(kind result.Kind, p target.Participant, err error) {
	if err == nil {
		return
	}
	e.log.Warn("render failed",
		logx.String("kind", kind.String()),
		logx.String("participant", p.Name),
		logx.Err(err),
	)
}

// runCommands resolves each value on its own. An empty target dispatches once
// unaddressed as the console; an empty audience skips only that value.
func (e *Executor) runCommands(ctx context.Context, values []result.CommandValue) {
	for _, cv := range values {
		if cv.Target == "" {
			e.dispatch(ctx, result.AsConsole, nil, e.subst.Substitute(nil, cv.Command))
			continue
		}
		audience := e.resolve(cv.Target)
		if len(audience) == 0 {
			e.log.Debug("no audience for command, skipped", logx.String("target", result.DisplayTarget(cv.Target)))
			continue
		}
		for _, p := range audience {
			e.dispatch(ctx, cv.Executor, &p, e.subst.Substitute(&p, cv.Command))
		}
	}
}

func (e *Executor) dispatch(ctx context.Context, as result.Executor, p *target.Participant, command string) {
	if err := e.limiter.Wait(ctx); err != nil {
		e.log.Warn("command dispatch cancelled", logx.String("command", command), logx.Err(err))
		return
	}
	if err := e.commands.Dispatch(ctx, as, p, command); err != nil {
		fields := []logx.Field{logx.String("command", command), logx.String("as", as.String()), logx.Err(err)}
		if p != nil {
			fields = append(fields, logx.String("participant", p.Name))
		}
		e.log.Warn("command dispatch failed", fields...)
	}
}
