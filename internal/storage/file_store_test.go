package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckeditor/internal/domain"
)

func TestFileStore_SaveAndLoad(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.LoadDeck(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrDeckNotFound)

	ack, err := s.SaveDeck(ctx, sampleDeck("d1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), ack.Version)

	ack, err = s.SaveDeck(ctx, sampleDeck("d1"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), ack.Version)

	got, err := s.LoadDeck(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly", got.Meta.Title)
	assert.True(t, ack.UpdatedAt.Equal(got.Meta.UpdatedAt))

	ids, err := s.ListDecks()
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, ids)
}

func TestFileStore_CancelledSaveKeepsOldFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	_, err = s.SaveDeck(context.Background(), sampleDeck("d1"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := sampleDeck("d1")
	d.Meta.Title = "never written"
	_, err = s.SaveDeck(ctx, d)
	require.ErrorIs(t, err, context.Canceled)

	got, err := s.LoadDeck(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly", got.Meta.Title)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStore_RejectsBadID(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	_, err = s.SaveDeck(context.Background(), sampleDeck("../escape"))
	assert.ErrorIs(t, err, domain.ErrInvalidDeck)

	for _, id := range []string{"", "../escape", `..\escape`, "nested/deck"} {
		_, err = s.LoadDeck(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrInvalidDeck, "id %q", id)
	}
}

func TestWatcher_ReportsOnlyExternalWrites(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	var changes atomic.Int32
	var lastID atomic.Value
	w, err := NewWatcher(s, 20*time.Millisecond, nil, func(id string) {
		lastID.Store(id)
		changes.Add(1)
	})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	_, err = s.SaveDeck(context.Background(), sampleDeck("d1"))
	require.NoError(t, err)
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, changes.Load(), "own writes are ignored")

	raw := []byte(`{"version": 9, "deck": {"meta": {"id": "d1", "title": "edited elsewhere"}, "settings": {}, "slides": []}}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "d1.json"), raw, 0644))

	require.Eventually(t, func() bool { return changes.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "d1", lastID.Load())
}
