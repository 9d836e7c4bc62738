package executor

import (
	"context"
	"strings"

	"epicscheduler/internal/result"
	"epicscheduler/internal/target"
	logx "epicscheduler/pkg/logx"
)

// LogRenderer writes every rendered effect to the log.
type LogRenderer struct {
	Log logx.Logger
}

func (r LogRenderer) ActionBar(_ context.Context, p target.Participant, text string) error {
	r.Log.Info("action bar", logx.String("participant", p.Name), logx.String("text", text))
	return nil
}

func (r LogRenderer) BossBar(_ context.Context, p target.Participant, bar result.BossBar) error {
	r.Log.Info("boss bar",
		logx.String("participant", p.Name),
		logx.String("title", bar.Title),
		logx.String("color", string(bar.Color)),
		logx.String("style", string(bar.Style)),
		logx.Float64("progress", bar.Progress),
	)
	return nil
}

func (r LogRenderer) Chat(_ context.Context, p target.Participant, text string) error {
	r.Log.Info("chat", logx.String("participant", p.Name), logx.String("text", text))
	return nil
}

func (r LogRenderer) Title(_ context.Context, p target.Participant, t result.TitleOverlay) error {
	r.Log.Info("title",
		logx.String("participant", p.Name),
		logx.String("title", t.Title),
		logx.String("subtitle", t.Subtitle),
		logx.Int("fade_in", t.FadeIn),
		logx.Int("stay", t.Stay),
		logx.Int("fade_out", t.FadeOut),
	)
	return nil
}

// LogCommands logs commands instead of running them.
type LogCommands struct {
	Log logx.Logger
}

func (c LogCommands) Dispatch(_ context.Context, as result.Executor, p *target.Participant, command string) error {
	fields := []logx.Field{logx.String("as", as.String()), logx.String("command", command)}
	if p != nil {
		fields = append(fields, logx.String("participant", p.Name))
	}
	c.Log.Info("command", fields...)
	return nil
}

// Identity is both a no-op Substituter and a no-op Translator.
type Identity struct{}

func (Identity) Substitute(_ *target.Participant, text string) string { return text }
func (Identity) Translate(text string) string                         { return text }

// Placeholders expands %player_name% and %player_uuid%. Without a participant
// the text is returned unchanged.
type Placeholders struct{}

func (Placeholders) Substitute(p *target.Participant, text string) string {
	if p == nil || !strings.Contains(text, "%") {
		return text
	}
	return strings.NewReplacer(
		"%player_name%", p.Name,
		"%player_uuid%", p.ID.String(),
	).Replace(text)
}

const legacyCodes = "0123456789abcdefklmnorABCDEFKLMNOR"

// Ampersand translates '&' formatting codes into the '§' form.
type Ampersand struct{}

func (Ampersand) Translate(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	b := []byte(text)
	var out strings.Builder
	out.Grow(len(b) + 8)
	for i := 0; i < len(b); i++ {
		if b[i] == '&' && i+1 < len(b) && strings.IndexByte(legacyCodes, b[i+1]) >= 0 {
			out.WriteString("§")
			out.WriteByte(lower(b[i+1]))
			i++
			continue
		}
		out.WriteByte(b[i])
	}
	return out.String()
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
