package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Autosave.Debounce())
	assert.Equal(t, 150*time.Millisecond, cfg.Autosave.GestureDebounce())
	assert.Equal(t, 100*time.Millisecond, cfg.Autosave.Retry())
	assert.Equal(t, 16*time.Millisecond, cfg.Editor.FrameInterval())
	assert.Equal(t, 50, cfg.Editor.HistoryLimit)
	assert.Equal(t, "@every 30s", cfg.Autosave.Checkpoint)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: file
  dir: /tmp/decks
autosave:
  debounce_ms: 800
editor:
  history_limit: 10
log:
  level: debug
`), 0o644))

	t.Setenv("DECK_HISTORY_LIMIT", "25")
	t.Setenv("DECK_LOG_DEV", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "/tmp/decks", cfg.Store.Dir)
	assert.Equal(t, 800*time.Millisecond, cfg.Autosave.Debounce())
	assert.Equal(t, 150*time.Millisecond, cfg.Autosave.GestureDebounce(), "unset keys keep defaults")
	assert.Equal(t, 25, cfg.Editor.HistoryLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoad_UnlimitedHistory(t *testing.T) {
	t.Setenv("DECK_HISTORY_LIMIT", "0")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Editor.HistoryLimit)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("bad driver", func(t *testing.T) {
		t.Setenv("DECK_STORE_DRIVER", "redis")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("bad int", func(t *testing.T) {
		t.Setenv("DECK_AUTOSAVE_DEBOUNCE_MS", "soon")
		_, err := Load("")
		assert.ErrorContains(t, err, "DECK_AUTOSAVE_DEBOUNCE_MS")
	})
	t.Run("zero debounce", func(t *testing.T) {
		t.Setenv("DECK_AUTOSAVE_DEBOUNCE_MS", "0")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("negative history", func(t *testing.T) {
		t.Setenv("DECK_HISTORY_LIMIT", "-1")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "deck.yaml")
		require.NoError(t, os.WriteFile(path, []byte("store: [\n"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}
