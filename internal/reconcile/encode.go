package reconcile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"epicscheduler/internal/result"
	"epicscheduler/internal/schedule"
)

// ErrDuplicateKind is returned by Encode when two results share a section.
var ErrDuplicateKind = errors.New("schedule has more than one result of the same kind")

// Encode is the inverse of Decode.
func Encode(s schedule.Schedule) (*yaml.Node, error) {
	m := mapping()
	if s.Repeats() {
		put(m, fieldRepeat, intNode(schedule.RepeatSeconds(s.Repeat)))
		if s.SkipMissedRepeats {
			put(m, fieldSkipMissed, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"})
		}
	}
	seen := make(map[result.Kind]bool, len(s.Results))
	for _, sr := range s.Results {
		if seen[sr.Kind] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKind, sr.Kind)
		}
		seen[sr.Kind] = true
		if err := sr.Validate(); err != nil {
			return nil, err
		}
		put(m, sr.Kind.Section(), encodeSection(sr))
	}
	return m, nil
}

func encodeSection(sr result.ScheduleResult) *yaml.Node {
	m := mapping()
	if sr.Kind.Targetable() {
		put(m, fieldTarget, str(result.DisplayTarget(sr.Target)))
	}
	put(m, fieldPick, str(sr.Pick.String()))
	for i, r := range sr.Results {
		put(m, strconv.Itoa(i+1), encodeResult(r))
	}
	return m
}

func encodeResult(r result.Result) *yaml.Node {
	m := mapping()
	switch r.Kind() {
	case result.KindActionBar, result.KindChatMessage:
		put(m, fieldText, str(r.Text()))
	case result.KindBossBar:
		bar := r.BossBar()
		put(m, fieldTitle, str(bar.Title))
		put(m, fieldColor, str(string(bar.Color)))
		put(m, fieldStyle, str(string(bar.Style)))
		put(m, fieldProgress, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: floatString(bar.Progress)})
	case result.KindTitle:
		t := r.Title()
		put(m, fieldTitle, str(t.Title))
		if t.Subtitle != "" {
			put(m, fieldSubtitle, str(t.Subtitle))
		}
		put(m, fieldFadeIn, intNode(int64(t.FadeIn)))
		put(m, fieldStay, intNode(int64(t.Stay)))
		put(m, fieldFadeOut, intNode(int64(t.FadeOut)))
	case result.KindCommand:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, cv := range r.Commands() {
			seq.Content = append(seq.Content, str(cv.String()))
		}
		put(m, fieldValues, seq)
	}
	return m
}

func floatString(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func mapping() *yaml.Node { return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"} }

func str(v string) *yaml.Node { return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v} }

func intNode(v int64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v, 10)}
}

func put(m *yaml.Node, key string, v *yaml.Node) {
	m.Content = append(m.Content, str(key), v)
}
