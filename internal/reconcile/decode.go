package reconcile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"epicscheduler/internal/result"
	"epicscheduler/internal/schedule"
)

// Field names of the persisted schedule layout.
const (
	fieldRepeat     = "Repeat"
	fieldSkipMissed = "Skip Missed Repeats"
	fieldTarget     = "Target"
	fieldPick       = "Pick"
	fieldText       = "Text"
	fieldTitle      = "Title"
	fieldSubtitle   = "Subtitle"
	fieldColor      = "Color"
	fieldStyle      = "Style"
	fieldProgress   = "Progress"
	fieldFadeIn     = "Fade In"
	fieldStay       = "Stay"
	fieldFadeOut    = "Fade Out"
	fieldValues     = "Values"
)

var (
	errNotMapping = errors.New("value is not a mapping")
	errNoResults  = errors.New("section has no valid results")

	errNonCanonicalKey = errors.New("date is not in yyyy-MM-dd HH:mm:ss form")
)

// Decode parses one top-level entry. Invalid sections and results are dropped
// and reported; ok is false only when the entry as a whole is unusable.
func Decode(key string, node *yaml.Node, loc *time.Location) (s schedule.Schedule, ws Warnings, ok bool) {
	due, err := schedule.ParseKey(key, loc)
	if err != nil {
		return s, append(ws, ParseWarning{Key: key, Err: fmt.Errorf("invalid date: %w", err)}), false
	}
	// Timers and settles address the entry by its formatted key, so a key
	// that formats differently could never be removed once it fired.
	if canon := schedule.Key(due, loc); canon != key {
		return s, append(ws, ParseWarning{Key: key, Err: fmt.Errorf("%w: want %q", errNonCanonicalKey, canon)}), false
	}
	if node == nil || node.Kind != yaml.MappingNode {
		return s, append(ws, ParseWarning{Key: key, Err: errNotMapping}), false
	}

	var (
		repeat  time.Duration
		skip    bool
		results []result.ScheduleResult
	)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, value := node.Content[i].Value, node.Content[i+1]
		switch name {
		case fieldRepeat:
			d, err := schedule.ParseRepeat(value.Value)
			if err != nil {
				ws = append(ws, ParseWarning{Key: key, Err: err})
				continue
			}
			repeat = d
		case fieldSkipMissed:
			b, err := strconv.ParseBool(strings.TrimSpace(value.Value))
			if err != nil {
				ws = append(ws, ParseWarning{Key: key, Err: fmt.Errorf("invalid %s %q", fieldSkipMissed, value.Value)})
				continue
			}
			skip = b
		default:
			sr, sws, ok := decodeSection(key, name, value)
			ws = append(ws, sws...)
			if ok {
				results = append(results, sr)
			}
		}
	}

	s, err = schedule.New(due, results, repeat, skip)
	if err != nil {
		return s, append(ws, ParseWarning{Key: key, Err: err}), false
	}
	return s, ws, true
}

func decodeSection(key, section string, node *yaml.Node) (result.ScheduleResult, Warnings, bool) {
	var ws Warnings
	warn := func(err error) {
		ws = append(ws, ParseWarning{Key: key, Section: section, Err: err})
	}

	kind, ok := result.ParseKind(section)
	if !ok {
		warn(result.ErrUnknownKind)
		return result.ScheduleResult{}, ws, false
	}
	if node.Kind != yaml.MappingNode {
		warn(errNotMapping)
		return result.ScheduleResult{}, ws, false
	}

	var (
		tgt     string
		pick    = result.PickAll
		results []result.Result
	)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, value := node.Content[i].Value, node.Content[i+1]
		switch name {
		case fieldTarget:
			tgt = value.Value
		case fieldPick:
			pick = result.ParsePick(value.Value)
		default:
			if value.Kind != yaml.MappingNode {
				warn(fmt.Errorf("result %q: %w", name, errNotMapping))
				continue
			}
			r, err := decodeResult(kind, value)
			if err != nil {
				warn(fmt.Errorf("result %q: %w", name, err))
				continue
			}
			results = append(results, r)
		}
	}

	if kind.Targetable() && strings.TrimSpace(tgt) == "" {
		warn(result.ErrMissingTarget)
		return result.ScheduleResult{}, ws, false
	}
	if len(results) == 0 {
		warn(errNoResults)
		return result.ScheduleResult{}, ws, false
	}
	sr, err := result.New(kind, pick, tgt, results...)
	if err != nil {
		warn(err)
		return result.ScheduleResult{}, ws, false
	}
	return sr, ws, true
}

func decodeResult(kind result.Kind, node *yaml.Node) (result.Result, error) {
	f := fieldsOf(node)
	switch kind {
	case result.KindActionBar, result.KindChatMessage:
		text, ok := f.str(fieldText)
		if !ok {
			return result.Result{}, fmt.Errorf("missing %s", fieldText)
		}
		if kind == result.KindActionBar {
			return result.ActionBar(text), nil
		}
		return result.ChatMessage(text), nil

	case result.KindBossBar:
		title, ok := f.str(fieldTitle)
		if !ok {
			return result.Result{}, fmt.Errorf("missing %s", fieldTitle)
		}
		color := result.ColorPink
		if v, ok := f.str(fieldColor); ok {
			c, err := result.ParseBarColor(v)
			if err != nil {
				return result.Result{}, err
			}
			color = c
		}
		style := result.StyleSolid
		if v, ok := f.str(fieldStyle); ok {
			st, err := result.ParseBarStyle(v)
			if err != nil {
				return result.Result{}, err
			}
			style = st
		}
		progress := 1.0
		if v, ok := f.str(fieldProgress); ok {
			p, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return result.Result{}, fmt.Errorf("invalid %s %q", fieldProgress, v)
			}
			progress = p
		}
		return result.NewBossBar(title, color, style, progress), nil

	case result.KindTitle:
		title, ok := f.str(fieldTitle)
		if !ok {
			return result.Result{}, fmt.Errorf("missing %s", fieldTitle)
		}
		subtitle, _ := f.str(fieldSubtitle)
		fadeIn, err := f.integer(fieldFadeIn, result.DefaultFadeIn)
		if err != nil {
			return result.Result{}, err
		}
		stay, err := f.integer(fieldStay, result.DefaultStay)
		if err != nil {
			return result.Result{}, err
		}
		fadeOut, err := f.integer(fieldFadeOut, result.DefaultFadeOut)
		if err != nil {
			return result.Result{}, err
		}
		return result.NewTitle(title, subtitle, fadeIn, stay, fadeOut), nil

	case result.KindCommand:
		raw := f.strs(fieldValues)
		if len(raw) == 0 {
			return result.Result{}, fmt.Errorf("missing %s", fieldValues)
		}
		values := make([]result.CommandValue, 0, len(raw))
		for _, v := range raw {
			values = append(values, result.ParseCommandValue(v))
		}
		return result.NewCommand(values...), nil
	}
	return result.Result{}, result.ErrUnknownKind
}

type fields map[string]*yaml.Node

func fieldsOf(node *yaml.Node) fields {
	f := make(fields, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		f[node.Content[i].Value] = node.Content[i+1]
	}
	return f
}

func (f fields) str(name string) (string, bool) {
	n, ok := f[name]
	if !ok || n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

func (f fields) integer(name string, def int) (int, error) {
	v, ok := f.str(name)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

// strs accepts either a sequence of scalars or a single scalar.
func (f fields) strs(name string) []string {
	n, ok := f[name]
	if !ok {
		return nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return []string{n.Value}
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind == yaml.ScalarNode {
				out = append(out, c.Value)
			}
		}
		return out
	}
	return nil
}
