// Package store persists the schedule tree to a single YAML file.
//
// Writes go to a uniquely named temp file next to the schedule file, which is
// then renamed over it, so the file on disk is always either the old or the new
// content. A failed Load never leads to the file being overwritten through
// Update.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	logx "epicscheduler/pkg/logx"
)

// ErrCorrupt marks a schedule file that exists but cannot be read as a mapping.
var ErrCorrupt = errors.New("schedule store is corrupt")

const headComment = `Schedules keyed by due time (yyyy-MM-dd HH:mm:ss, local time).
Sections: Action Bars, Boss Bars, Chat Messages, Commands, Titles.
Optional per schedule: Repeat (seconds or "30 days") and Skip Missed Repeats.`

type Store struct {
	fs   afero.Fs
	path string
	log  logx.Logger

	mu   sync.Mutex
	hash uint64
}

// New returns a store for path on fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, path string, log logx.Logger) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Store{
		fs:   fs,
		path: path,
		log:  log.With(logx.String("comp", "store"), logx.String("path", path)),
	}
}

func (s *Store) Path() string { return s.path }

// Load reads the file and remembers its hash.
// A missing or empty file is an empty tree.
func (s *Store) Load() (*Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, sum, err := s.read()
	if err != nil {
		return nil, err
	}
	s.hash = sum
	return t, nil
}

// Save replaces the file with t.
func (s *Store) Save(t *Tree) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(t)
}

// Update loads the file, applies fn and saves. Nothing is written if the load
// or fn fails.
func (s *Store) Update(fn func(*Tree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, sum, err := s.read()
	if err != nil {
		return err
	}
	s.hash = sum
	if err := fn(t); err != nil {
		return err
	}
	return s.write(t)
}

// Clear forgets the content last read or written, so any file on disk counts
// as changed. The file is left untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	s.hash = 0
	s.mu.Unlock()
}

// Hash identifies the content last read or written. Zero means empty.
func (s *Store) Hash() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hash
}

// FileHash hashes the current file content without loading it.
func (s *Store) FileHash() (uint64, error) {
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	return hashBytes(b), nil
}

func (s *Store) read() (*Tree, uint64, error) {
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewTree(), 0, nil
		}
		return nil, 0, fmt.Errorf("read schedules: %w", err)
	}
	t, err := decode(b)
	if err != nil {
		return nil, 0, err
	}
	return t, hashBytes(b), nil
}

func decode(b []byte) (*Tree, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return NewTree(), nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewTree(), nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		t := NewTree()
		t.head = doc.HeadComment
		return t, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping", ErrCorrupt)
	}
	head := doc.HeadComment
	if head == "" {
		head, root.HeadComment = root.HeadComment, ""
	}
	return &Tree{root: root, head: head}, nil
}

func encode(t *Tree) ([]byte, error) {
	root := t.root
	head := t.head
	if head == "" {
		head = headComment
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if t.Len() == 0 {
		root.Style = yaml.FlowStyle
	} else {
		root.Style = 0
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, HeadComment: head, Content: []*yaml.Node{root}}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode schedules: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode schedules: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Store) write(t *Tree) error {
	if t == nil {
		t = NewTree()
	}
	b, err := encode(t)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create schedules dir: %w", err)
		}
	}
	tmp, err := s.writeTemp(b)
	if err != nil {
		return fmt.Errorf("write schedules: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace schedules: %w", err)
	}
	s.hash = hashBytes(b)
	s.log.Debug("schedules saved", logx.Int("entries", t.Len()))
	return nil
}

// writeTemp writes b to a fresh temp file in the schedule file's directory and
// returns its name. The daemon and the CLI may write concurrently, so the name
// is never reused.
func (s *Store) writeTemp(b []byte) (string, error) {
	f, err := afero.TempFile(s.fs, filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return "", err
	}
	name := f.Name()
	_, err = f.Write(b)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = s.fs.Chmod(name, 0o644)
	}
	if err != nil {
		_ = s.fs.Remove(name)
		return "", err
	}
	return name, nil
}

// hashBytes returns a stable 64-bit hash of b. Empty input returns 0.
func hashBytes(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
