package result

import (
	"fmt"
	"strings"
)

// Kind tags a Result variant. The set is closed.
type Kind int

const (
	KindActionBar Kind = iota + 1
	KindBossBar
	KindChatMessage
	KindCommand
	KindTitle
)

// Kinds lists every kind in persisted-section order.
var Kinds = []Kind{KindActionBar, KindBossBar, KindChatMessage, KindCommand, KindTitle}

// Section returns the display name used as the section key in the schedule store.
func (k Kind) Section() string {
	switch k {
	case KindActionBar:
		return "Action Bars"
	case KindBossBar:
		return "Boss Bars"
	case KindChatMessage:
		return "Chat Messages"
	case KindCommand:
		return "Commands"
	case KindTitle:
		return "Titles"
	default:
		return ""
	}
}

// Short is the single-word name used by the CLI ("bossbar", "title", ...).
func (k Kind) Short() string {
	switch k {
	case KindActionBar:
		return "actionbar"
	case KindBossBar:
		return "bossbar"
	case KindChatMessage:
		return "chatmessage"
	case KindCommand:
		return "command"
	case KindTitle:
		return "title"
	default:
		return ""
	}
}

func (k Kind) String() string {
	if s := k.Section(); s != "" {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Targetable reports whether results of this kind are rendered per audience member.
// Commands carry their own per-value targets instead.
func (k Kind) Targetable() bool {
	switch k {
	case KindActionBar, KindBossBar, KindChatMessage, KindTitle:
		return true
	default:
		return false
	}
}

func (k Kind) Valid() bool { return k >= KindActionBar && k <= KindTitle }

// ParseKind accepts either the section name ("Boss Bars") or the short name ("bossbar"),
// case-insensitively.
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	for _, k := range Kinds {
		if s == strings.ToLower(k.Section()) || s == k.Short() {
			return k, true
		}
	}
	return 0, false
}

// Pick selects how many results of a ScheduleResult run on each occurrence.
type Pick int

const (
	PickAll Pick = iota
	PickRandom
)

func (p Pick) String() string {
	if p == PickRandom {
		return "RANDOM"
	}
	return "ALL"
}

// ParsePick maps "RANDOM" to PickRandom; anything else (including blank) is PickAll.
func ParsePick(s string) Pick {
	if strings.TrimSpace(s) == "RANDOM" {
		return PickRandom
	}
	return PickAll
}
