// Package state remembers what happened to each source file across runs.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/energyaudit/auditmig/internal/config"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "~/.auditmig/state.yaml"

// Status is the outcome recorded for a file.
type Status string

const (
	StatusMigrated      Status = "migrated"
	StatusFailed        Status = "failed"
	StatusPrepareFailed Status = "prepare_failed"
	// StatusRolledBack marks a file whose rows were removed from the
	// destination after a successful migration.
	StatusRolledBack Status = "rolled_back"
	// StatusNotAttempted marks a prepared file the run stopped before.
	StatusNotAttempted Status = "not_attempted"
)

// State holds the last known outcome of every file seen.
type State struct {
	LastUpdated time.Time            `yaml:"last_updated"`
	LastRunID   string               `yaml:"last_run_id,omitempty"`
	Files       map[string]FileState `yaml:"files,omitempty"`
}

// FileState is the outcome of the latest attempt at one file.
type FileState struct {
	Status    Status    `yaml:"status"`
	UpdatedAt time.Time `yaml:"updated_at"`
	RunID     string    `yaml:"run_id,omitempty"`
	Rows      int64     `yaml:"rows,omitempty"`
	Dropped   int       `yaml:"dropped,omitempty"`
	Error     string    `yaml:"error,omitempty"`
}

// Load reads the state from disk. A missing file yields an empty state.
func Load(path string) (*State, error) {
	if path == "" {
		path = config.ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	s := &State{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}

	return s, nil
}

// Save writes the state to disk.
func (s *State) Save(path string) error {
	if path == "" {
		path = config.ExpandHome(DefaultPath)
	}

	s.LastUpdated = time.Now()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// New creates an empty state.
func New() *State {
	return &State{
		LastUpdated: time.Now(),
		Files:       make(map[string]FileState),
	}
}

// Record stores the outcome for the named file, stamping the time.
func (s *State) Record(name string, fs FileState) {
	if fs.UpdatedAt.IsZero() {
		fs.UpdatedAt = time.Now()
	}
	s.Files[filepath.Base(name)] = fs
}

// IsMigrated returns true if the named file was migrated successfully.
func (s *State) IsMigrated(name string) bool {
	fs, ok := s.Files[filepath.Base(name)]
	return ok && fs.Status == StatusMigrated
}

// Names returns the recorded file names in sorted order.
func (s *State) Names() []string {
	names := make([]string, 0, len(s.Files))
	for n := range s.Files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Counts tallies files by status.
func (s *State) Counts() map[Status]int {
	out := make(map[Status]int)
	for _, fs := range s.Files {
		out[fs.Status]++
	}
	return out
}
