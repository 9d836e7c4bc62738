// Package cmdline is the epicscheduler command line. Editing commands work on
// the schedule file directly; a running daemon picks the change up through its
// file watcher.
package cmdline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/raulk/clock"
	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"epicscheduler/internal/app"
	"epicscheduler/internal/config"
	"epicscheduler/internal/result"
	"epicscheduler/internal/schedule"
	"epicscheduler/internal/store"
	"epicscheduler/internal/target"
	logx "epicscheduler/pkg/logx"
)

const defaultConfigPath = "./config.yml"

// Execute runs the command line with os.Args style arguments.
func Execute(args []string, version string) error {
	return New(os.Stdout, clock.New(), version).Run(args)
}

// New builds the command line app writing to out.
func New(out io.Writer, clk clock.Clock, version string) *cli.App {
	a := cli.NewApp()
	a.Name = "epicscheduler"
	a.HelpName = "epicscheduler"
	a.Usage = "run results at wall-clock due times"
	a.UsageText = "epicscheduler [--config path] <command> [arguments...]"
	a.Version = version
	a.Writer = out
	a.ErrWriter = out
	a.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: defaultConfigPath,
			Usage: "path to the config file (yaml or json)",
		},
	}
	a.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "run the scheduler daemon",
			Action: runDaemon,
		},
		{
			Name:      "schedule",
			Aliases:   []string{"s"},
			Usage:     "schedule a result",
			ArgsUsage: "<date> <time> <actionbar|bossbar|chatmessage|command|title> [target] <value...>",
			Description: `Targets are EVERYONE, a zone name, a participant name or a participant id.
   bossbar takes an optional trailing "COLOR STYLE PROGRESS".
   title takes "<title> [subtitle] [fadeIn stay fadeOut]".
   command takes "[target;CONSOLE|PLAYER;]command".`,
			SkipArgReorder: true,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "repeat, r", Usage: `repeat interval ("86400", "30 days", "36h")`},
				cli.BoolFlag{Name: "skip-missed", Usage: "skip missed repeats instead of catching up"},
				cli.StringFlag{Name: "pick", Value: "ALL", Usage: "ALL or RANDOM"},
				cli.BoolFlag{Name: "append, a", Usage: "add to an existing schedule at the same time instead of replacing it"},
			},
			Action: func(c *cli.Context) error { return scheduleCmd(c, clk) },
		},
		{
			Name:      "unschedule",
			Aliases:   []string{"u"},
			Usage:     "remove a schedule",
			ArgsUsage: "<date> <time>",
			Action:    unscheduleCmd,
		},
		{
			Name:      "info",
			Aliases:   []string{"i"},
			Usage:     "list schedules or show one",
			ArgsUsage: "[<date> <time>]",
			Action:    func(c *cli.Context) error { return infoCmd(c, clk) },
		},
		{
			Name:   "check",
			Usage:  "reconcile the schedule file without running anything",
			Action: func(c *cli.Context) error { return checkCmd(c, clk) },
		},
		{
			Name:  "history",
			Usage: "show recent scheduler events",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "limit, n", Value: 20, Usage: "number of entries"},
			},
			Action: historyCmd,
		},
	}
	return a
}

// env is the offline view of a daemon config.
type env struct {
	cfg   *config.Config
	loc   *time.Location
	store *store.Store
	dir   *target.Static
}

func loadEnv(c *cli.Context) (*env, error) {
	cfg, err := config.NewManager(c.GlobalString("config")).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:   cfg,
		loc:   loc,
		store: store.New(afero.NewOsFs(), cfg.Schedules.Path, logx.Nop()),
		dir:   target.NewStatic(app.Audience(cfg)),
	}, nil
}

// targetOf keeps EVERYONE, zone names and ids, and turns a known participant
// name into its id.
func (e *env) targetOf(arg string) string {
	arg = strings.TrimSpace(arg)
	if result.NormalizeTarget(arg) == result.Everyone {
		return arg
	}
	for _, z := range e.dir.Zones() {
		if z == arg {
			return arg
		}
	}
	if _, ok := target.ParseID(arg); ok {
		return arg
	}
	if p, ok := e.dir.LookupName(arg); ok {
		return p.ID.String()
	}
	return arg
}

func (e *env) parseDue(args cli.Args) (time.Time, error) {
	if len(args) < 2 {
		return time.Time{}, errors.New("expected <date> <time>")
	}
	due, err := schedule.ParseKey(args[0]+" "+args[1], e.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a date (yyyy-MM-dd HH:mm:ss)", args[0]+" "+args[1])
	}
	return due, nil
}
