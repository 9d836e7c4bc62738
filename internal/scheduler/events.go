package scheduler

import (
	"time"

	"epicscheduler/internal/eventbus"
)

// Event types published on the bus.
const (
	EventSet           = "schedule.set"
	EventFired         = "schedule.fired"
	EventCancelled     = "schedule.cancelled"
	EventPersistFailed = "schedule.persist_failed"
)

// EventData is the payload of scheduler events.
type EventData struct {
	Key     string        `json:"key"`
	Due     time.Time     `json:"due"`
	Repeat  time.Duration `json:"repeat,omitempty"`
	Results int           `json:"results"`
	// Overdue is set for schedules fired during reconciliation.
	Overdue bool   `json:"overdue,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Service) publish(typ string, d EventData) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: s.clk.Now(), Data: d})
}
