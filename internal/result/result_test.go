package result

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommandValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want CommandValue
	}{
		{name: "full", raw: "world_end;PLAYER;say hi", want: CommandValue{Target: "world_end", Executor: AsParticipant, Command: "say hi"}},
		{name: "bare", raw: "say hi", want: CommandValue{Executor: AsConsole, Command: "say hi"}},
		{name: "separator after space", raw: "say a;b;c", want: CommandValue{Executor: AsConsole, Command: "say a;b;c"}},
		{name: "everyone", raw: "EVERYONE;CONSOLE;tell x hi", want: CommandValue{Target: Everyone, Executor: AsConsole, Command: "tell x hi"}},
		{name: "bad executor", raw: "world;ROOT;op me", want: CommandValue{Target: "world", Executor: AsConsole, Command: "op me"}},
		{name: "single separator", raw: "world;say hi", want: CommandValue{Target: "world", Executor: AsConsole, Command: "say hi"}},
		{name: "command keeps later separators", raw: "w;PLAYER;a;b", want: CommandValue{Target: "w", Executor: AsParticipant, Command: "a;b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseCommandValue(tt.raw))
		})
	}
}

func TestCommandValueStringRoundTrip(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"world_end;PLAYER;say hi", "say hi", "EVERYONE;CONSOLE;tell %player_name% hi"} {
		cv := ParseCommandValue(raw)
		require.Equal(t, raw, cv.String())
		require.Equal(t, cv, ParseCommandValue(cv.String()))
	}
}

func TestUnaddressedCommandWithSeparatorRoundTrips(t *testing.T) {
	t.Parallel()
	for _, cmd := range []string{"a;b c", "a;b", ";x y", "EVERYONE;CONSOLE;x"} {
		cv := CommandValue{Executor: AsConsole, Command: cmd}
		require.Equal(t, ";CONSOLE;"+cmd, cv.String())
		require.Equal(t, cv, ParseCommandValue(cv.String()), cmd)
	}
}

func TestBossBarProgressClamped(t *testing.T) {
	t.Parallel()
	require.Equal(t, 1.0, NewBossBar("t", ColorBlue, StyleSolid, 1.5).BossBar().Progress)
	require.Equal(t, 0.0, NewBossBar("t", ColorBlue, StyleSolid, -0.2).BossBar().Progress)
	require.Equal(t, 0.5, NewBossBar("t", ColorBlue, StyleSolid, 0.5).BossBar().Progress)

	bar := NewBossBar("t", "", "", 1).BossBar()
	require.Equal(t, ColorPink, bar.Color)
	require.Equal(t, StyleSolid, bar.Style)
}

func TestEveryoneNormalization(t *testing.T) {
	t.Parallel()
	require.Equal(t, Everyone, NormalizeTarget("EVERYONE"))
	require.Equal(t, Everyone, NormalizeTarget("  EVERYONE "))
	require.Equal(t, "everyone", NormalizeTarget("everyone"))
	require.NotEqual(t, "EVERYONE", Everyone)
	require.Equal(t, "EVERYONE", DisplayTarget(Everyone))
}

func TestScheduleResultValidate(t *testing.T) {
	t.Parallel()

	_, err := New(KindChatMessage, PickAll, "  ", ChatMessage("hi"))
	require.True(t, errors.Is(err, ErrMissingTarget))

	sr, err := New(KindCommand, PickRandom, "ignored", NewCommand(ParseCommandValue("say hi")))
	require.NoError(t, err)
	require.Empty(t, sr.Target)

	_, err = New(KindTitle, PickAll, "EVERYONE", ChatMessage("wrong"))
	require.ErrorIs(t, err, ErrKindMismatch)

	sr, err = New(KindTitle, PickAll, "EVERYONE", NewTitle("a", "b", DefaultFadeIn, DefaultStay, DefaultFadeOut))
	require.NoError(t, err)
	require.Equal(t, Everyone, sr.Target)
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	for _, k := range Kinds {
		got, ok := ParseKind(k.Section())
		require.True(t, ok)
		require.Equal(t, k, got)
		got, ok = ParseKind(k.Short())
		require.True(t, ok)
		require.Equal(t, k, got)
	}
	_, ok := ParseKind("Fireworks")
	require.False(t, ok)
	require.False(t, KindCommand.Targetable())
	require.True(t, KindTitle.Targetable())
}

func TestResultImmutable(t *testing.T) {
	t.Parallel()
	r := NewCommand(ParseCommandValue("say hi"))
	cmds := r.Commands()
	cmds[0].Command = "changed"
	require.Equal(t, "say hi", r.Commands()[0].Command)
}
