package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const (
	timeFormat  = "2006-01-02T15:04:05.000Z07:00"
	defaultFile = "epicscheduler.log"
)

// Config selects level and sinks. With no sink enabled, events go to the
// console.
type Config struct {
	Level   string
	Console bool
	File    FileConfig
}

// FileConfig is a JSON-lines sink. An empty Path means epicscheduler.log in the
// working directory.
type FileConfig struct {
	Enabled bool
	Path    string
}

// Service owns the sinks shared by every Logger it hands out.
type Service struct {
	root atomic.Pointer[zerolog.Logger]

	mu   sync.Mutex
	file *os.File
}

// New builds a Service from cfg. If the log file cannot be opened the error is
// logged to the console and the remaining sinks are used.
func New(cfg Config) (*Service, Logger) {
	zerolog.ErrorFieldName = "err"
	zerolog.TimeFieldFormat = timeFormat

	s := &Service{}
	log := Logger{svc: s}
	if err := s.Apply(cfg); err != nil {
		log.Error("log file unavailable", Err(err))
	}
	return s, log
}

func (s *Service) current() *zerolog.Logger {
	if zl := s.root.Load(); zl != nil {
		return zl
	}
	return &nop
}

// Apply replaces level and sinks. Loggers already handed out follow. A file
// that cannot be opened is reported and left out.
func (s *Service) Apply(cfg Config) error {
	var (
		sinks []io.Writer
		f     *os.File
		err   error
	)
	if cfg.Console {
		sinks = append(sinks, consoleWriter())
	}
	if cfg.File.Enabled {
		if f, err = openLogFile(cfg.File.Path); err == nil {
			sinks = append(sinks, zerolog.SyncWriter(f))
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, consoleWriter())
	}
	zl := zerolog.New(zerolog.MultiLevelWriter(sinks...)).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()

	s.mu.Lock()
	prev := s.file
	s.file = f
	s.root.Store(&zl)
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return err
}

// Close releases the log file. Later events only reach the console sink, if any.
func (s *Service) Close() error {
	s.mu.Lock()
	f := s.file
	s.file = nil
	s.mu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

func openLogFile(path string) (*os.File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	return f, nil
}

func consoleWriter() io.Writer {
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: timeFormat,
		FormatCaller: func(i any) string {
			s, _ := i.(string)
			return s
		},
	}
}

// parseLevel maps a config level name to a zerolog level. Blank or unknown
// names are info; "warning" is accepted for warn.
func parseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
