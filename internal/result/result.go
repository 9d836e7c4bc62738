package result

import (
	"fmt"
	"strings"
)

// BarColor is the color of a boss bar.
type BarColor string

const (
	ColorBlue   BarColor = "BLUE"
	ColorGreen  BarColor = "GREEN"
	ColorPink   BarColor = "PINK"
	ColorPurple BarColor = "PURPLE"
	ColorRed    BarColor = "RED"
	ColorWhite  BarColor = "WHITE"
	ColorYellow BarColor = "YELLOW"
)

var BarColors = []BarColor{ColorBlue, ColorGreen, ColorPink, ColorPurple, ColorRed, ColorWhite, ColorYellow}

// BarStyle is the segmentation of a boss bar.
type BarStyle string

const (
	StyleSolid       BarStyle = "SOLID"
	StyleSegmented6  BarStyle = "SEGMENTED_6"
	StyleSegmented10 BarStyle = "SEGMENTED_10"
	StyleSegmented12 BarStyle = "SEGMENTED_12"
	StyleSegmented20 BarStyle = "SEGMENTED_20"
)

var BarStyles = []BarStyle{StyleSolid, StyleSegmented6, StyleSegmented10, StyleSegmented12, StyleSegmented20}

func ParseBarColor(s string) (BarColor, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, c := range BarColors {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown bar color %q", s)
}

func ParseBarStyle(s string) (BarStyle, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, st := range BarStyles {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown bar style %q", s)
}

// Title overlay defaults, in ticks.
const (
	DefaultFadeIn  = 10
	DefaultStay    = 70
	DefaultFadeOut = 20
)

// BossBar is the payload of a KindBossBar result.
type BossBar struct {
	Title    string
	Color    BarColor
	Style    BarStyle
	Progress float64
}

// TitleOverlay is the payload of a KindTitle result.
type TitleOverlay struct {
	Title    string
	Subtitle string
	FadeIn   int
	Stay     int
	FadeOut  int
}

// Result is one effect. It is a closed tagged union: Kind() selects which accessor is
// meaningful. Values are immutable; accessors return copies.
type Result struct {
	kind  Kind
	text  string
	bar   BossBar
	title TitleOverlay
	cmds  []CommandValue
}

func ActionBar(text string) Result { return Result{kind: KindActionBar, text: text} }

func ChatMessage(text string) Result { return Result{kind: KindChatMessage, text: text} }

// NewBossBar builds a boss bar, clamping progress into [0,1] and defaulting
// blank color/style to PINK/SOLID.
func NewBossBar(title string, color BarColor, style BarStyle, progress float64) Result {
	if color == "" {
		color = ColorPink
	}
	if style == "" {
		style = StyleSolid
	}
	return Result{kind: KindBossBar, bar: BossBar{
		Title:    title,
		Color:    color,
		Style:    style,
		Progress: ClampProgress(progress),
	}}
}

func NewTitle(title, subtitle string, fadeIn, stay, fadeOut int) Result {
	return Result{kind: KindTitle, title: TitleOverlay{
		Title:    title,
		Subtitle: subtitle,
		FadeIn:   fadeIn,
		Stay:     stay,
		FadeOut:  fadeOut,
	}}
}

func NewCommand(values ...CommandValue) Result {
	return Result{kind: KindCommand, cmds: append([]CommandValue(nil), values...)}
}

// ClampProgress clamps p into [0,1].
func ClampProgress(p float64) float64 {
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

func (r Result) Kind() Kind { return r.kind }

// Text is the payload of action bars and chat messages.
func (r Result) Text() string { return r.text }

func (r Result) BossBar() BossBar { return r.bar }

func (r Result) Title() TitleOverlay { return r.title }

func (r Result) Commands() []CommandValue { return append([]CommandValue(nil), r.cmds...) }

// Equal reports semantic equality.
func (r Result) Equal(o Result) bool {
	if r.kind != o.kind || r.text != o.text || r.bar != o.bar || r.title != o.title {
		return false
	}
	if len(r.cmds) != len(o.cmds) {
		return false
	}
	for i := range r.cmds {
		if r.cmds[i] != o.cmds[i] {
			return false
		}
	}
	return true
}

func (r Result) String() string {
	switch r.kind {
	case KindActionBar, KindChatMessage:
		return fmt.Sprintf("%s{%q}", r.kind, r.text)
	case KindBossBar:
		return fmt.Sprintf("%s{%q %s %s %.2f}", r.kind, r.bar.Title, r.bar.Color, r.bar.Style, r.bar.Progress)
	case KindTitle:
		return fmt.Sprintf("%s{%q %q %d/%d/%d}", r.kind, r.title.Title, r.title.Subtitle, r.title.FadeIn, r.title.Stay, r.title.FadeOut)
	case KindCommand:
		parts := make([]string, 0, len(r.cmds))
		for _, c := range r.cmds {
			parts = append(parts, c.String())
		}
		return fmt.Sprintf("%s%q", r.kind, parts)
	default:
		return r.kind.String()
	}
}
