package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Schedules SchedulesConfig `json:"schedules" yaml:"schedules"`
	Executor  ExecutorConfig  `json:"executor,omitempty" yaml:"executor,omitempty"`
	History   *HistoryConfig  `json:"history,omitempty" yaml:"history,omitempty"`
	Audience  AudienceConfig  `json:"audience,omitempty" yaml:"audience,omitempty"`
	Debug     *DebugConfig    `json:"debug,omitempty" yaml:"debug,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level" yaml:"level"`
	Console bool        `json:"console" yaml:"console"`
	File    LoggingFile `json:"file" yaml:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// SchedulesConfig locates the schedule file and controls reconciliation.
//
// Example:
//
//	schedules: { path: ./schedules.yml, watch: true, resync: "@every 1h" }
type SchedulesConfig struct {
	Path string `json:"path" yaml:"path"`
	// Watch reconciles whenever the file is edited by someone else.
	Watch bool `json:"watch,omitempty" yaml:"watch,omitempty"`
	// Resync is a cron spec (robfig/cron, with descriptors like "@every 1h")
	// for periodic reconciliation. Empty disables it.
	Resync string `json:"resync,omitempty" yaml:"resync,omitempty"`
	// Timezone of schedule keys; empty means the local zone.
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// ExecutorConfig paces command dispatch. A zero rate is unlimited.
type ExecutorConfig struct {
	DispatchRate  float64 `json:"dispatch_rate,omitempty" yaml:"dispatch_rate,omitempty"`
	DispatchBurst int     `json:"dispatch_burst,omitempty" yaml:"dispatch_burst,omitempty"`
}

// HistoryConfig controls the optional event history.
//
// Example:
//
//	"history": { "driver": "file", "path": "./epicscheduler" }
type HistoryConfig struct {
	Driver      string `json:"driver" yaml:"driver"`
	Path        string `json:"path" yaml:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty" yaml:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// BusyTimeoutOr parses BusyTimeout as a Go duration. Blank or zero gives def.
func (h *HistoryConfig) BusyTimeoutOr(def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(h.BusyTimeout)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("history.busy_timeout: invalid duration %q: %w", h.BusyTimeout, err)
	}
	if d < 0 {
		return 0, errors.New("history.busy_timeout must be >= 0")
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}

// AudienceConfig is the participant directory used when no live directory is
// attached. Zones are matched in the order listed.
type AudienceConfig struct {
	Zones []ZoneConfig `json:"zones,omitempty" yaml:"zones,omitempty"`
}

type ZoneConfig struct {
	Name         string              `json:"name" yaml:"name"`
	Participants []ParticipantConfig `json:"participants,omitempty" yaml:"participants,omitempty"`
}

type ParticipantConfig struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// DebugConfig controls the optional local HTTP endpoint with health, the
// pending schedule list and, when Pprof is set, net/http/pprof.
//
// A non-loopback Addr requires Token or AllowInsecure.
type DebugConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	Addr          string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Token         string `json:"token,omitempty" yaml:"token,omitempty"`
	AllowInsecure bool   `json:"allow_insecure,omitempty" yaml:"allow_insecure,omitempty"`
	Pprof         bool   `json:"pprof,omitempty" yaml:"pprof,omitempty"`
}

// Location resolves Schedules.Timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Schedules.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("schedules.timezone: %w", err)
	}
	return loc, nil
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ResyncSchedule parses Schedules.Resync; nil means disabled.
func (c *Config) ResyncSchedule() (cron.Schedule, error) {
	spec := strings.TrimSpace(c.Schedules.Resync)
	if spec == "" {
		return nil, nil
	}
	s, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("schedules.resync: invalid spec %q: %w", spec, err)
	}
	return s, nil
}

// Validate checks the fields that cannot be repaired with defaults.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Schedules.Path) == "" {
		errs = append(errs, errors.New("schedules.path is required"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ResyncSchedule(); err != nil {
		errs = append(errs, err)
	}
	if c.Executor.DispatchRate < 0 {
		errs = append(errs, errors.New("executor.dispatch_rate must be >= 0"))
	}
	if c.History != nil {
		if _, err := c.History.BusyTimeoutOr(0); err != nil {
			errs = append(errs, err)
		}
	}
	seen := make(map[string]struct{})
	for i, z := range c.Audience.Zones {
		if strings.TrimSpace(z.Name) == "" {
			errs = append(errs, fmt.Errorf("audience.zones[%d].name is required", i))
		}
		if _, dup := seen[z.Name]; dup {
			errs = append(errs, fmt.Errorf("audience.zones[%d]: duplicate zone %q", i, z.Name))
		}
		seen[z.Name] = struct{}{}
		for j, p := range z.Participants {
			if _, err := uuid.Parse(p.ID); err != nil || len(p.ID) != 36 {
				errs = append(errs, fmt.Errorf("audience.zones[%d].participants[%d].id %q: want xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx", i, j, p.ID))
			}
		}
	}
	return errors.Join(errs...)
}
