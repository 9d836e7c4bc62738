package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the history store.
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Entry records one lifecycle event of a schedule.
// Keep it compact and schema-stable.
type Entry struct {
	At      time.Time `json:"at"`
	Event   string    `json:"event"`
	Key     string    `json:"key,omitempty"`
	Due     time.Time `json:"due,omitempty"`
	Repeat  int64     `json:"repeat_s,omitempty"`
	Results int       `json:"results,omitempty"`
	Overdue bool      `json:"overdue,omitempty"`
	Error   string    `json:"error,omitempty"`
}
