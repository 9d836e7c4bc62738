package target

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Zone is one named group of participants in a Static directory.
type Zone struct {
	Name         string
	Participants []Participant
}

// Static is a Directory backed by a fixed zone list. Replace swaps the whole set,
// so it can follow config reloads.
type Static struct {
	mu    sync.RWMutex
	zones []Zone
	byID  map[uuid.UUID]Participant
}

func NewStatic(zones []Zone) *Static {
	s := &Static{}
	s.Replace(zones)
	return s
}

func (s *Static) Replace(zones []Zone) {
	cp := make([]Zone, 0, len(zones))
	byID := make(map[uuid.UUID]Participant)
	for _, z := range zones {
		ps := make([]Participant, 0, len(z.Participants))
		for _, p := range z.Participants {
			p.Zone = z.Name
			ps = append(ps, p)
			if _, dup := byID[p.ID]; !dup {
				byID[p.ID] = p
			}
		}
		cp = append(cp, Zone{Name: z.Name, Participants: ps})
	}
	s.mu.Lock()
	s.zones = cp
	s.byID = byID
	s.mu.Unlock()
}

func (s *Static) Online() []Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Participant
	seen := make(map[uuid.UUID]struct{}, len(s.byID))
	for _, z := range s.zones {
		for _, p := range z.Participants {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

func (s *Static) Zones() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.zones))
	for _, z := range s.zones {
		out = append(out, z.Name)
	}
	return out
}

func (s *Static) InZone(zone string) []Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, z := range s.zones {
		if z.Name == zone {
			return append([]Participant(nil), z.Participants...)
		}
	}
	return nil
}

func (s *Static) Lookup(id uuid.UUID) (Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	return p, ok
}

// LookupName returns the first participant named name, ignoring case.
func (s *Static) LookupName(name string) (Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, z := range s.zones {
		for _, p := range z.Participants {
			if strings.EqualFold(p.Name, name) {
				return p, true
			}
		}
	}
	return Participant{}, false
}
