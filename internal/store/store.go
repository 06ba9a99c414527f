// Package store persists the minimal client session state between runs: the
// session id, the adjustment map, and a save timestamp. State older than 30
// minutes is discarded on load, matching the server-side session lifetime.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cgyc6688/aspect-ratio-automator/internal/api"
)

// MaxAge is how long persisted state stays usable.
const MaxAge = 30 * time.Minute

const stateFile = "state.json"

// State mirrors what the client keeps between runs.
type State struct {
	SessionID   string                 `json:"session_id"`
	Adjustments map[string]api.Offsets `json:"adjustments"`
	SavedAt     time.Time              `json:"timestamp"`
}

// Empty reports whether the state holds no session.
func (s State) Empty() bool {
	return s.SessionID == ""
}

// Store reads and writes the state file.
type Store struct {
	path string
	now  func() time.Time
}

// New creates a store writing to dir/state.json.
func New(dir string) *Store {
	return &Store{
		path: filepath.Join(dir, stateFile),
		now:  time.Now,
	}
}

// DefaultDir resolves the state directory: ARA_STATE_DIR if set, otherwise
// the user cache directory.
func DefaultDir() (string, error) {
	if dir := os.Getenv("ARA_STATE_DIR"); dir != "" {
		return dir, nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "aspect-ratio-automator"), nil
}

// Save writes the state, stamping it with the current time.
func (s *Store) Save(state State) error {
	state.SavedAt = s.now()
	if state.Adjustments == nil {
		state.Adjustments = map[string]api.Offsets{}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Load reads the persisted state. Missing, unreadable, or expired state
// loads as empty; expired state is also removed on disk.
func (s *Store) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Warn("Discarding unreadable session state", "path", s.path, "err", err)
		return State{}, nil
	}

	if s.now().Sub(state.SavedAt) > MaxAge {
		slog.Info("Discarding expired session state", "session_id", state.SessionID, "saved_at", state.SavedAt)
		if err := s.Clear(); err != nil {
			slog.Warn("Failed to remove expired state file", "err", err)
		}
		return State{}, nil
	}

	if state.Adjustments == nil {
		state.Adjustments = map[string]api.Offsets{}
	}
	return state, nil
}

// Clear removes the state file.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}
