package config

import (
	"reflect"
	"strings"

	logx "epicscheduler/pkg/logx"
)

// SummarizeConfigChange returns a compact list of changed sections and
// structured attrs for logging.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 12)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if strings.TrimSpace(oldCfg.Schedules.Path) != strings.TrimSpace(newCfg.Schedules.Path) ||
		oldCfg.Schedules.Watch != newCfg.Schedules.Watch ||
		strings.TrimSpace(oldCfg.Schedules.Resync) != strings.TrimSpace(newCfg.Schedules.Resync) ||
		strings.TrimSpace(oldCfg.Schedules.Timezone) != strings.TrimSpace(newCfg.Schedules.Timezone) {
		changed = append(changed, "schedules")
		attrs = append(attrs,
			logx.String("schedules.path", newCfg.Schedules.Path),
			logx.Bool("schedules.watch", newCfg.Schedules.Watch),
			logx.String("schedules.resync", newCfg.Schedules.Resync),
		)
	}

	if oldCfg.Executor != newCfg.Executor {
		changed = append(changed, "executor")
		attrs = append(attrs,
			logx.Float64("executor.dispatch_rate", newCfg.Executor.DispatchRate),
			logx.Int("executor.dispatch_burst", newCfg.Executor.DispatchBurst),
		)
	}

	if !reflect.DeepEqual(oldCfg.History, newCfg.History) {
		changed = append(changed, "history")
		if newCfg.History != nil {
			attrs = append(attrs, logx.String("history.driver", newCfg.History.Driver))
		}
	}

	if !reflect.DeepEqual(oldCfg.Audience, newCfg.Audience) {
		changed = append(changed, "audience")
		attrs = append(attrs, logx.Int("audience.zones", len(newCfg.Audience.Zones)))
	}

	if !reflect.DeepEqual(oldCfg.Debug, newCfg.Debug) {
		changed = append(changed, "debug")
		if newCfg.Debug != nil {
			attrs = append(attrs, logx.Bool("debug.enabled", newCfg.Debug.Enabled), logx.String("debug.addr", newCfg.Debug.Addr))
		}
	}

	return changed, attrs
}
