package cmdline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"epicscheduler/internal/result"
)

func TestBuildBossBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		args    []string
		want    result.BossBar
		notices int
	}{
		{
			name: "trailing color style progress",
			args: []string{"EVERYONE", "Big", "event", "red", "SEGMENTED_6", "0.5"},
			want: result.BossBar{Title: "Big event", Color: result.ColorRed, Style: result.StyleSegmented6, Progress: 0.5},
		},
		{
			name: "progress clamped",
			args: []string{"EVERYONE", "Full", "BLUE", "SOLID", "7"},
			want: result.BossBar{Title: "Full", Color: result.ColorBlue, Style: result.StyleSolid, Progress: 1},
		},
		{
			name:    "defaults",
			args:    []string{"world", "Just", "a", "title"},
			want:    result.BossBar{Title: "Just a title", Color: result.ColorPink, Style: result.StyleSolid, Progress: 1},
			notices: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr, notices, err := build(result.KindBossBar, tt.args, result.PickAll, nil)
			require.NoError(t, err)
			require.Len(t, notices, tt.notices)
			require.Len(t, sr.Results, 1)
			require.Equal(t, tt.want, sr.Results[0].BossBar())
		})
	}
}

func TestBuildTitle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
		want result.TitleOverlay
	}{
		{
			name: "separate arguments",
			args: []string{"EVERYONE", "Hello there", "sub", "5", "60", "10"},
			want: result.TitleOverlay{Title: "Hello there", Subtitle: "sub", FadeIn: 5, Stay: 60, FadeOut: 10},
		},
		{
			name: "quoted words",
			args: []string{"EVERYONE", `"Hello`, `there"`, `"the`, `sub"`},
			want: result.TitleOverlay{Title: "Hello there", Subtitle: "the sub", FadeIn: 10, Stay: 70, FadeOut: 20},
		},
		{
			name: "title only",
			args: []string{"EVERYONE", "Hi"},
			want: result.TitleOverlay{Title: "Hi", FadeIn: 10, Stay: 70, FadeOut: 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr, _, err := build(result.KindTitle, tt.args, result.PickAll, nil)
			require.NoError(t, err)
			require.Equal(t, tt.want, sr.Results[0].Title())
		})
	}

	_, _, err := build(result.KindTitle, []string{"EVERYONE", `"unterminated`, "title"}, result.PickAll, nil)
	require.ErrorIs(t, err, errTitleSyntax)
	_, _, err = build(result.KindTitle, []string{"EVERYONE", "a", "b", "c"}, result.PickAll, nil)
	require.ErrorIs(t, err, errTitleSyntax)
}

func TestBuildCommand(t *testing.T) {
	t.Parallel()
	named := func(arg string) string {
		if arg == "Steve" {
			return "4b3a2e6c-55a4-4bd5-9b3c-6d7c1d1f9e11"
		}
		return arg
	}

	sr, _, err := build(result.KindCommand, []string{"Steve;PLAYER;say", "hi"}, result.PickAll, named)
	require.NoError(t, err)
	require.Empty(t, sr.Target)
	cmds := sr.Results[0].Commands()
	require.Equal(t, []result.CommandValue{{
		Target:   "4b3a2e6c-55a4-4bd5-9b3c-6d7c1d1f9e11",
		Executor: result.AsParticipant,
		Command:  "say hi",
	}}, cmds)

	sr, _, err = build(result.KindCommand, []string{"weather", "clear"}, result.PickAll, named)
	require.NoError(t, err)
	require.Equal(t, result.CommandValue{Executor: result.AsConsole, Command: "weather clear"}, sr.Results[0].Commands()[0])

	_, _, err = build(result.KindCommand, nil, result.PickAll, named)
	require.ErrorIs(t, err, errSyntax)
}

func TestBuildTargetable(t *testing.T) {
	t.Parallel()
	sr, _, err := build(result.KindChatMessage, []string{"EVERYONE", "hello", "world"}, result.PickRandom, nil)
	require.NoError(t, err)
	require.Equal(t, result.Everyone, sr.Target)
	require.Equal(t, result.PickRandom, sr.Pick)
	require.Equal(t, "hello world", sr.Results[0].Text())

	_, _, err = build(result.KindActionBar, []string{"EVERYONE"}, result.PickAll, nil)
	require.ErrorIs(t, err, errSyntax)
}
