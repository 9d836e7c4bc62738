package cmdline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"epicscheduler/internal/result"
)

var (
	errSyntax      = errors.New("invalid syntax")
	errTitleSyntax = errors.New(`title syntax: <title> [subtitle] [fadeIn stay fadeOut], or "quoted title" "quoted subtitle"`)
)

// TargetFunc maps a target argument to the persisted target specifier.
type TargetFunc func(arg string) string

// build turns the arguments following "<date> <time> <kind>" into a single
// ScheduleResult. Notices describe defaults that were applied.
func build(kind result.Kind, args []string, pick result.Pick, targetOf TargetFunc) (sr result.ScheduleResult, notices []string, err error) {
	if kind == result.KindCommand {
		if len(args) == 0 {
			return sr, nil, fmt.Errorf("%w: command needs a value", errSyntax)
		}
		v := result.ParseCommandValue(strings.Join(args, " "))
		if v.Target != "" && v.Target != result.Everyone && targetOf != nil {
			v.Target = targetOf(v.Target)
		}
		sr, err = result.New(kind, pick, "", result.NewCommand(v))
		return sr, nil, err
	}

	if len(args) < 2 {
		return sr, nil, fmt.Errorf("%w: %s needs a target and a value", errSyntax, kind.Short())
	}
	target := args[0]
	if targetOf != nil {
		target = targetOf(target)
	}
	args = args[1:]

	var r result.Result
	switch kind {
	case result.KindActionBar:
		r = result.ActionBar(strings.Join(args, " "))
	case result.KindChatMessage:
		r = result.ChatMessage(strings.Join(args, " "))
	case result.KindBossBar:
		var notice string
		r, notice = buildBossBar(args)
		if notice != "" {
			notices = append(notices, notice)
		}
	case result.KindTitle:
		title, subtitle, fades, ok := splitTitle(args)
		if !ok {
			return sr, nil, errTitleSyntax
		}
		if fades == nil {
			fades = []int{result.DefaultFadeIn, result.DefaultStay, result.DefaultFadeOut}
			notices = append(notices, fmt.Sprintf("no fade times given; using %d %d %d", fades[0], fades[1], fades[2]))
		}
		r = result.NewTitle(title, subtitle, fades[0], fades[1], fades[2])
	default:
		return sr, nil, fmt.Errorf("%w: %s", result.ErrUnknownKind, kind)
	}
	sr, err = result.New(kind, pick, target, r)
	return sr, notices, err
}

// buildBossBar reads an optional trailing "COLOR STYLE PROGRESS"; the rest is the title.
func buildBossBar(args []string) (result.Result, string) {
	if n := len(args); n >= 4 {
		progress, perr := strconv.ParseFloat(args[n-1], 64)
		color, cerr := result.ParseBarColor(args[n-3])
		style, serr := result.ParseBarStyle(args[n-2])
		if perr == nil && cerr == nil && serr == nil {
			return result.NewBossBar(strings.Join(args[:n-3], " "), color, style, progress), ""
		}
	}
	return result.NewBossBar(strings.Join(args, " "), result.ColorPink, result.StyleSolid, 1),
		"no trailing COLOR STYLE PROGRESS; using PINK SOLID 1.0"
}

// splitTitle accepts "<title> [subtitle] [fadeIn stay fadeOut]" as separate
// arguments, or a title and subtitle each wrapped in double quotes across
// several arguments.
func splitTitle(args []string) (title, subtitle string, fades []int, ok bool) {
	if n := len(args); n >= 4 {
		if f, ok := trailingInts(args[n-3:]); ok {
			fades = f
			args = args[:n-3]
		}
	}
	if len(args) == 0 {
		return "", "", nil, false
	}
	if strings.HasPrefix(args[0], `"`) {
		parts, ok := quoted(args)
		if !ok || len(parts) != 2 {
			return "", "", nil, false
		}
		return parts[0], parts[1], fades, true
	}
	switch len(args) {
	case 1:
		return args[0], "", fades, true
	case 2:
		return args[0], args[1], fades, true
	default:
		return "", "", nil, false
	}
}

func trailingInts(args []string) ([]int, bool) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// quoted joins arguments into double-quoted groups. Every argument must belong
// to a group.
func quoted(args []string) ([]string, bool) {
	var (
		groups []string
		cur    []string
		open   bool
	)
	for _, a := range args {
		if !open {
			if !strings.HasPrefix(a, `"`) {
				return nil, false
			}
			open = true
			a = a[1:]
			if strings.HasSuffix(a, `"`) {
				groups = append(groups, strings.TrimSuffix(a, `"`))
				open = false
				continue
			}
			cur = []string{a}
			continue
		}
		if strings.HasSuffix(a, `"`) {
			cur = append(cur, strings.TrimSuffix(a, `"`))
			groups = append(groups, strings.Join(cur, " "))
			cur, open = nil, false
			continue
		}
		cur = append(cur, a)
	}
	return groups, !open
}
