package cmdline

import (
	"errors"
	"fmt"

	"github.com/raulk/clock"
	"github.com/urfave/cli"

	"epicscheduler/internal/reconcile"
	"epicscheduler/internal/result"
	"epicscheduler/internal/schedule"
	"epicscheduler/internal/store"
)

var errUnknownSchedule = errors.New("no schedule at that time")

func scheduleCmd(c *cli.Context, clk clock.Clock) error {
	args := c.Args()
	if len(args) < 4 {
		return fmt.Errorf("%w: usage: schedule %s", errSyntax, c.Command.ArgsUsage)
	}
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	due, err := e.parseDue(args)
	if err != nil {
		return err
	}
	kind, ok := result.ParseKind(args[2])
	if !ok {
		return fmt.Errorf("%q is not a result kind (actionbar, bossbar, chatmessage, command, title)", args[2])
	}
	repeat, err := schedule.ParseRepeat(c.String("repeat"))
	if err != nil {
		return err
	}
	sr, notices, err := build(kind, args[3:], result.ParsePick(c.String("pick")), e.targetOf)
	if err != nil {
		return err
	}

	sc, err := schedule.New(due, []result.ScheduleResult{sr}, repeat, c.Bool("skip-missed"))
	if err != nil {
		return err
	}
	key := sc.Key(e.loc)
	merge := c.Bool("append")
	err = e.store.Update(func(t *store.Tree) error {
		if merge {
			if node, ok := t.Get(key); ok {
				if prev, _, ok := reconcile.Decode(key, node, e.loc); ok {
					sc = mergeInto(prev, sr)
				}
			}
		}
		node, err := reconcile.Encode(sc)
		if err != nil {
			return err
		}
		t.Set(key, node)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save schedule %s: %w", key, err)
	}

	out := c.App.Writer
	for _, n := range notices {
		fmt.Fprintln(out, "note:", n)
	}
	fmt.Fprintf(out, "scheduled %s at %s", sr, key)
	if rem := sc.Remaining(clk.Now()); rem > 0 {
		fmt.Fprintf(out, " (in %s)", humanize(rem))
	}
	fmt.Fprintln(out)
	return nil
}

// mergeInto replaces the section of sr's kind in prev, keeping prev's repeat
// policy.
func mergeInto(prev schedule.Schedule, sr result.ScheduleResult) schedule.Schedule {
	out := prev
	out.Results = nil
	replaced := false
	for _, r := range prev.Results {
		if r.Kind == sr.Kind {
			out.Results = append(out.Results, sr)
			replaced = true
			continue
		}
		out.Results = append(out.Results, r)
	}
	if !replaced {
		out.Results = append(out.Results, sr)
	}
	return out
}

func unscheduleCmd(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	due, err := e.parseDue(c.Args())
	if err != nil {
		return err
	}
	key := schedule.Key(due, e.loc)
	err = e.store.Update(func(t *store.Tree) error {
		if !t.Remove(key) {
			return errUnknownSchedule
		}
		return nil
	})
	if errors.Is(err, errUnknownSchedule) {
		return fmt.Errorf("%w: %s", errUnknownSchedule, key)
	}
	if err != nil {
		return fmt.Errorf("remove schedule %s: %w", key, err)
	}
	fmt.Fprintf(c.App.Writer, "unscheduled %s\n", key)
	return nil
}

func decodeOne(e *env, key string) (schedule.Schedule, reconcile.Warnings, error) {
	t, err := e.store.Load()
	if err != nil {
		return schedule.Schedule{}, nil, err
	}
	node, ok := t.Get(key)
	if !ok {
		return schedule.Schedule{}, nil, fmt.Errorf("%w: %s", errUnknownSchedule, key)
	}
	sc, ws, ok := reconcile.Decode(key, node, e.loc)
	if !ok {
		return schedule.Schedule{}, ws, fmt.Errorf("schedule %s can not be read: %w", key, ws.Err())
	}
	return sc, ws, nil
}
