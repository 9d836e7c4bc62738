package result

import (
	"errors"
	"fmt"
	"strings"
)

// Everyone is the normalized target addressing every present participant.
// The leading '!' keeps it distinct from any zone name or identifier.
const Everyone = "!EVERYONE"

const everyoneInput = "EVERYONE"

var (
	ErrMissingTarget = errors.New("targetable result has no target")
	ErrUnknownKind   = errors.New("unknown result kind")
	ErrKindMismatch  = errors.New("result kind does not match its section")
)

// NormalizeTarget trims s and maps "EVERYONE" to the Everyone sentinel.
func NormalizeTarget(s string) string {
	s = strings.TrimSpace(s)
	if s == everyoneInput {
		return Everyone
	}
	return s
}

// DisplayTarget is the inverse of NormalizeTarget, used when persisting.
func DisplayTarget(s string) string {
	if s == Everyone {
		return everyoneInput
	}
	return s
}

// ScheduleResult is a bundle of results of one kind sharing a pick policy and a target.
type ScheduleResult struct {
	Kind    Kind
	Pick    Pick
	Results []Result
	// Target is empty only for non-targetable kinds.
	Target string
}

// New builds a ScheduleResult with a normalized target and validates it.
func New(kind Kind, pick Pick, target string, results ...Result) (ScheduleResult, error) {
	sr := ScheduleResult{
		Kind:    kind,
		Pick:    pick,
		Results: append([]Result(nil), results...),
		Target:  NormalizeTarget(target),
	}
	if !kind.Targetable() {
		sr.Target = ""
	}
	return sr, sr.Validate()
}

// Validate checks the invariants of a ScheduleResult.
func (sr ScheduleResult) Validate() error {
	if !sr.Kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(sr.Kind))
	}
	if sr.Kind.Targetable() && strings.TrimSpace(sr.Target) == "" {
		return fmt.Errorf("%s: %w", sr.Kind, ErrMissingTarget)
	}
	for i, r := range sr.Results {
		if r.Kind() != sr.Kind {
			return fmt.Errorf("%s result %d is %s: %w", sr.Kind, i+1, r.Kind(), ErrKindMismatch)
		}
	}
	return nil
}

// Equal reports semantic equality.
func (sr ScheduleResult) Equal(o ScheduleResult) bool {
	if sr.Kind != o.Kind || sr.Pick != o.Pick || sr.Target != o.Target || len(sr.Results) != len(o.Results) {
		return false
	}
	for i := range sr.Results {
		if !sr.Results[i].Equal(o.Results[i]) {
			return false
		}
	}
	return true
}

func (sr ScheduleResult) String() string {
	parts := make([]string, 0, len(sr.Results))
	for _, r := range sr.Results {
		parts = append(parts, r.String())
	}
	target := DisplayTarget(sr.Target)
	if target == "" {
		target = "-"
	}
	return fmt.Sprintf("%s[target=%s pick=%s] %s", sr.Kind, target, sr.Pick, strings.Join(parts, ", "))
}
