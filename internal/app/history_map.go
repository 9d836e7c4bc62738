package app

import (
	"fmt"
	"strings"
	"time"

	"epicscheduler/internal/config"
	"epicscheduler/internal/storage"
	logx "epicscheduler/pkg/logx"
)

// OpenHistory opens the configured history store. It returns nil when history
// is disabled.
func OpenHistory(cfg *config.Config, log logx.Logger) (storage.Store, error) {
	hc, enabled, err := mapHistoryConfig(cfg)
	if err != nil || !enabled {
		return nil, err
	}
	st, err := storage.Open(hc, log)
	if err != nil {
		return nil, err
	}
	log.Info("history enabled", logx.String("driver", hc.Driver), logx.String("path", hc.Path))
	return st, nil
}

func mapHistoryConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.History == nil {
		return storage.Config{}, false, nil
	}
	hc := cfg.History
	driver := strings.ToLower(strings.TrimSpace(hc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(hc.Path)

	switch driver {
	case "file":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("history.path is required when history.driver=file")
		}
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("history.path is required when history.driver=sqlite")
		}
		busy, err := hc.BusyTimeoutOr(time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown history.driver: %s", hc.Driver)
	}
}
