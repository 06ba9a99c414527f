package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgyc6688/aspect-ratio-automator/internal/api"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())

	err := s.Save(State{
		SessionID: "sess-123",
		Adjustments: map[string]api.Offsets{
			"4x5": {XOffset: 20, YOffset: -10},
		},
	})
	require.NoError(t, err)

	state, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "sess-123", state.SessionID)
	assert.Equal(t, api.Offsets{XOffset: 20, YOffset: -10}, state.Adjustments["4x5"])
	assert.WithinDuration(t, time.Now(), state.SavedAt, time.Minute)
}

func TestLoadMissingFile(t *testing.T) {
	s := New(t.TempDir())

	state, err := s.Load()
	require.NoError(t, err)
	assert.True(t, state.Empty())
}

func TestLoadExpiredStateIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	// Save with a clock 31 minutes in the past, load with the real clock.
	s.now = func() time.Time { return time.Now().Add(-31 * time.Minute) }
	require.NoError(t, s.Save(State{SessionID: "sess-old"}))

	s.now = time.Now
	state, err := s.Load()
	require.NoError(t, err)
	assert.True(t, state.Empty(), "expired state should load as empty")

	_, statErr := os.Stat(filepath.Join(dir, stateFile))
	assert.True(t, os.IsNotExist(statErr), "expired state file should be removed")
}

func TestLoadFreshStateIsRetained(t *testing.T) {
	s := New(t.TempDir())

	s.now = func() time.Time { return time.Now().Add(-29 * time.Minute) }
	require.NoError(t, s.Save(State{SessionID: "sess-fresh"}))

	s.now = time.Now
	state, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "sess-fresh", state.SessionID)
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFile), []byte("{not json"), 0644))

	s := New(dir)
	state, err := s.Load()
	require.NoError(t, err)
	assert.True(t, state.Empty())
}

func TestClear(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Save(State{SessionID: "sess-123"}))
	require.NoError(t, s.Clear())

	state, err := s.Load()
	require.NoError(t, err)
	assert.True(t, state.Empty())

	// Clearing an already-clear store is fine.
	require.NoError(t, s.Clear())
}
