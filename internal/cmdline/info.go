package cmdline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hako/durafmt"
	"github.com/raulk/clock"
	"github.com/urfave/cli"

	"epicscheduler/internal/app"
	"epicscheduler/internal/reconcile"
	"epicscheduler/internal/schedule"
	logx "epicscheduler/pkg/logx"
)

func humanize(d time.Duration) string {
	return durafmt.Parse(d).LimitFirstN(2).String()
}

func dueIn(now time.Time, due time.Time) string {
	rem := due.Sub(now).Truncate(time.Second)
	if rem <= 0 {
		return "overdue"
	}
	return "in " + humanize(rem)
}

func infoCmd(c *cli.Context, clk clock.Clock) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	out := c.App.Writer
	now := clk.Now()

	if len(c.Args()) > 0 {
		due, err := e.parseDue(c.Args())
		if err != nil {
			return err
		}
		sc, ws, err := decodeOne(e, schedule.Key(due, e.loc))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%s)\n", sc.String(), dueIn(now, sc.Due))
		printWarnings(out, ws)
		return nil
	}

	t, err := e.store.Load()
	if err != nil {
		return err
	}
	res := reconcile.Partition(t, now, e.loc)
	total := len(res.Overdue) + len(res.Pending)
	if total == 0 {
		fmt.Fprintln(out, "no schedules")
	} else {
		fmt.Fprintf(out, "%d schedule(s):\n", total)
		for _, sc := range res.Overdue {
			fmt.Fprintf(out, "  %s  overdue\n", sc.Key(e.loc))
		}
		for _, sc := range res.Pending {
			fmt.Fprintf(out, "  %s  %s\n", sc.Key(e.loc), dueIn(now, sc.Due))
		}
	}
	if n := len(res.Warnings); n > 0 {
		fmt.Fprintf(out, "%d warning(s); run check for details\n", n)
	}
	return nil
}

// checkCmd partitions the file like a reset would, without executing or saving.
func checkCmd(c *cli.Context, clk clock.Clock) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	t, err := e.store.Load()
	if err != nil {
		return err
	}
	out := c.App.Writer
	res := reconcile.Partition(t, clk.Now(), e.loc)
	fmt.Fprintf(out, "%s: %d entries, %d pending, %d overdue\n", e.store.Path(), t.Len(), len(res.Pending), len(res.Overdue))
	for _, key := range res.OverdueKeys {
		fmt.Fprintf(out, "  %s would run on the next reset\n", key)
	}
	printWarnings(out, res.Warnings)
	if len(res.Warnings) > 0 {
		return fmt.Errorf("%d warning(s)", len(res.Warnings))
	}
	return nil
}

func printWarnings(out io.Writer, ws reconcile.Warnings) {
	for _, w := range ws {
		fmt.Fprintln(out, "warning:", w.Error())
	}
}

func historyCmd(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	st, err := app.OpenHistory(e.cfg, logx.Nop())
	if err != nil {
		return err
	}
	if st == nil {
		return errors.New("history is disabled in the config")
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	entries, err := st.Recent(ctx, c.Int("limit"))
	if err != nil {
		return err
	}
	out := c.App.Writer
	for _, en := range entries {
		line := fmt.Sprintf("%s  %-24s %s", en.At.In(e.loc).Format(time.DateTime), en.Event, en.Key)
		if en.Overdue {
			line += " (overdue)"
		}
		if en.Error != "" {
			line += " error=" + en.Error
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
