package result

import "strings"

// Executor selects who dispatches a command.
type Executor int

const (
	// AsConsole dispatches through the privileged console executor.
	AsConsole Executor = iota
	// AsParticipant dispatches as the addressed participant.
	AsParticipant
)

func (e Executor) String() string {
	if e == AsParticipant {
		return "PLAYER"
	}
	return "CONSOLE"
}

func parseExecutor(s string) (Executor, bool) {
	switch s {
	case "CONSOLE":
		return AsConsole, true
	case "PLAYER":
		return AsParticipant, true
	default:
		return AsConsole, false
	}
}

// CommandValue is one command of a command-dispatch result.
// An empty Target means the command runs once, unaddressed, as the console.
type CommandValue struct {
	Target   string
	Executor Executor
	Command  string
}

// ParseCommandValue parses "target;executor;command".
//
// If no ';' appears before the first space, the whole value is the command and it runs
// once as the console. An unknown executor token falls back to the console.
func ParseCommandValue(value string) CommandValue {
	first := strings.IndexByte(value, ';')
	space := strings.IndexByte(value, ' ')
	if first == -1 || (space != -1 && first > space) {
		return CommandValue{Executor: AsConsole, Command: value}
	}

	target := NormalizeTarget(value[:first])
	rest := value[first+1:]
	second := strings.IndexByte(rest, ';')
	if second == -1 {
		return CommandValue{Target: target, Executor: AsConsole, Command: rest}
	}

	exec, _ := parseExecutor(rest[:second])
	return CommandValue{Target: target, Executor: exec, Command: rest[second+1:]}
}

// String re-encodes the value in the form accepted by ParseCommandValue.
// An unaddressed command that would itself parse as "target;..." is written
// with an empty target, ";CONSOLE;command".
func (c CommandValue) String() string {
	if c.Target == "" {
		if bare := (CommandValue{Executor: AsConsole, Command: c.Command}); ParseCommandValue(c.Command) == bare {
			return c.Command
		}
		return ";" + AsConsole.String() + ";" + c.Command
	}
	return DisplayTarget(c.Target) + ";" + c.Executor.String() + ";" + c.Command
}
