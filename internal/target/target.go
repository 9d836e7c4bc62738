// Package target resolves a target specifier into the audience it addresses.
package target

import (
	"strings"

	"github.com/google/uuid"

	"epicscheduler/internal/result"
)

// Participant is a present audience member.
type Participant struct {
	ID   uuid.UUID
	Name string
	Zone string
}

// Directory is the presence source consulted on every resolution.
type Directory interface {
	// Online returns every present participant.
	Online() []Participant
	// Zones returns zone names in priority order; the first exact match wins.
	Zones() []string
	// InZone returns the present participants of zone.
	InZone(zone string) []Participant
	// Lookup returns a present participant by identifier.
	Lookup(id uuid.UUID) (Participant, bool)
}

// Resolver maps target specifiers to participants.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve applies, in order: blank, the everyone sentinel, an exact zone name,
// then a participant identifier. Nothing matches fuzzily.
func (r *Resolver) Resolve(spec string) []Participant {
	if r == nil || r.dir == nil {
		return nil
	}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}
	if spec == result.Everyone {
		return r.dir.Online()
	}
	for _, z := range r.dir.Zones() {
		if z == spec {
			return r.dir.InZone(z)
		}
	}
	id, ok := ParseID(spec)
	if !ok {
		return nil
	}
	if p, ok := r.dir.Lookup(id); ok {
		return []Participant{p}
	}
	return nil
}

// ParseID accepts a participant identifier only in its dashed 36-character
// form. The urn, braced and undashed forms uuid.Parse also takes are not
// identifiers here.
func ParseID(s string) (uuid.UUID, bool) {
	if len(s) != 36 {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}
