package app

import (
	"epicscheduler/internal/config"
	"epicscheduler/internal/target"
)

// Audience builds the static zone list of cfg. Ids were validated on load.
func Audience(cfg *config.Config) []target.Zone {
	zones := make([]target.Zone, 0, len(cfg.Audience.Zones))
	for _, z := range cfg.Audience.Zones {
		ps := make([]target.Participant, 0, len(z.Participants))
		for _, p := range z.Participants {
			id, ok := target.ParseID(p.ID)
			if !ok {
				continue
			}
			ps = append(ps, target.Participant{ID: id, Name: p.Name})
		}
		zones = append(zones, target.Zone{Name: z.Name, Participants: ps})
	}
	return zones
}
