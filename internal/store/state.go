// Package store persists visitor preferences (theme and language) across
// page loads.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Preference keys. Absence of a key means no explicit choice has been made.
const (
	KeyTheme    = "theme"
	KeyLanguage = "language"
)

// LocalBucket holds the preferences of the interactive local page.
const LocalBucket = "local"

const (
	// CurrentSchemaVersion is the current version of the state schema.
	CurrentSchemaVersion = 1
)

// ErrStoreClosed is returned by writes after Close.
var ErrStoreClosed = errors.New("preference store is closed")

// DataDir returns the path to the homepage data directory.
// Uses XDG_DATA_HOME or defaults to ~/.local/share/homepage.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "homepage"), nil
}

// StateFilePath returns the path to the preference state file.
func StateFilePath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "state.json"), nil
}

// Entry is one persisted preference value.
type Entry struct {
	Value     string `json:"value"`
	UpdatedAt int64  `json:"updated_at"`       // Unix timestamp
	Source    string `json:"source,omitempty"` // e.g. "homepage", "ssh", "cli"
}

// State is the on-disk document: one bucket of entries per visitor.
type State struct {
	SchemaVersion int                         `json:"schema_version"`
	Buckets       map[string]map[string]Entry `json:"buckets"`
}

// DefaultState returns an empty state.
func DefaultState() *State {
	return &State{
		SchemaVersion: CurrentSchemaVersion,
		Buckets:       make(map[string]map[string]Entry),
	}
}

// loadState reads the state file. A missing or corrupted file yields an
// empty state.
func loadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return DefaultState(), nil
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}
	if state.Buckets == nil {
		state.Buckets = make(map[string]map[string]Entry)
	}
	return &state, nil
}

// saveState writes the state atomically via a temp file.
func saveState(path string, state *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// FileStore keeps preferences in a JSON state file shared between the
// interactive page, the SSH server and the prefs CLI.
//
// Every write re-reads the file first so concurrent processes don't clobber
// each other's buckets.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	state  *State
	now    func() time.Time
	closed bool
}

// OpenFileStore loads the state file at path. An empty path uses
// StateFilePath.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		var err error
		path, err = StateFilePath()
		if err != nil {
			return nil, err
		}
	}

	state, err := loadState(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, state: state, now: time.Now}, nil
}

// Path returns the state file path.
func (s *FileStore) Path() string {
	return s.path
}

// Reload re-reads the state file.
func (s *FileStore) Reload() error {
	state, err := loadState(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// Close stops further writes.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Bucket returns the preferences of one visitor.
func (s *FileStore) Bucket(name string) *Bucket {
	return &Bucket{store: s, name: name, source: "homepage"}
}

// Buckets returns all bucket names, sorted.
func (s *FileStore) Buckets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.state.Buckets))
	for name := range s.state.Buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns a copy of a bucket's entries.
func (s *FileStore) Entries(bucket string) map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Entry, len(s.state.Buckets[bucket]))
	for k, v := range s.state.Buckets[bucket] {
		out[k] = v
	}
	return out
}

// ResetBucket removes every preference of a bucket.
func (s *FileStore) ResetBucket(bucket string) error {
	return s.update(func(state *State) {
		delete(state.Buckets, bucket)
	})
}

func (s *FileStore) get(bucket, key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.state.Buckets[bucket][key]
	return e, ok
}

func (s *FileStore) set(bucket, key, value, source string) error {
	now := s.now().Unix()
	return s.update(func(state *State) {
		entries := state.Buckets[bucket]
		if entries == nil {
			entries = make(map[string]Entry)
			state.Buckets[bucket] = entries
		}
		entries[key] = Entry{Value: value, UpdatedAt: now, Source: source}
	})
}

func (s *FileStore) delete(bucket, key string) error {
	return s.update(func(state *State) {
		entries := state.Buckets[bucket]
		delete(entries, key)
		if len(entries) == 0 {
			delete(state.Buckets, bucket)
		}
	})
}

func (s *FileStore) update(apply func(*State)) error {
	stateFileMutex.Lock()
	defer stateFileMutex.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	state, err := loadState(s.path)
	if err != nil {
		return err
	}
	apply(state)
	if err := saveState(s.path, state); err != nil {
		return err
	}
	s.state = state
	return nil
}

// stateFileMutex serializes read-modify-write cycles within the process.
var stateFileMutex sync.Mutex
