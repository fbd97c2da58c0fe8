package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckeditor/internal/domain"
	"deckeditor/internal/history"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "decks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleDeck(id string) *domain.Deck {
	return &domain.Deck{
		Meta:     domain.DeckMeta{ID: id, Title: "Quarterly", Slug: "quarterly", OwnerID: "u1"},
		Settings: domain.DeckSettings{Width: 1280, Height: 720},
		Slides: []domain.Slide{{
			ID: "s1",
			Elements: []domain.Element{
				{ID: "a", Type: domain.ElementText, Bounds: domain.Bounds{X: 10, Y: 20, Width: 100, Height: 40}, Content: "hello"},
			},
		}},
	}
}

func TestSQLStore_LoadMissing(t *testing.T) {
	s := NewSQLStore(openTestDB(t))
	_, err := s.LoadDeck(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrDeckNotFound)
}

func TestSQLStore_SaveAndLoad(t *testing.T) {
	s := NewSQLStore(openTestDB(t))
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	ack, err := s.SaveDeck(ctx, sampleDeck("d1"))
	require.NoError(t, err)
	assert.Equal(t, "d1", ack.DeckID)
	assert.Equal(t, int64(1), ack.Version)
	assert.Equal(t, clock, ack.UpdatedAt)

	got, err := s.LoadDeck(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly", got.Meta.Title)
	require.Len(t, got.Slides, 1)
	assert.Equal(t, "hello", got.Slides[0].Elements[0].Content)
	assert.True(t, clock.Equal(got.Meta.UpdatedAt))

	clock = clock.Add(time.Minute)
	d := sampleDeck("d1")
	d.Meta.Title = "Renamed"
	ack, err = s.SaveDeck(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ack.Version)

	got, err = s.LoadDeck(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Meta.Title)
	assert.True(t, clock.Equal(got.Meta.UpdatedAt))
}

func TestSQLStore_SaveHonoursCancellation(t *testing.T) {
	s := NewSQLStore(openTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SaveDeck(ctx, sampleDeck("d1"))
	require.ErrorIs(t, err, context.Canceled)

	_, err = s.LoadDeck(context.Background(), "d1")
	assert.ErrorIs(t, err, domain.ErrDeckNotFound)
}

func TestSQLStore_ListAndDelete(t *testing.T) {
	s := NewSQLStore(openTestDB(t))
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	_, err := s.SaveDeck(ctx, sampleDeck("d1"))
	require.NoError(t, err)
	_, err = s.SaveDeck(ctx, sampleDeck("d2"))
	require.NoError(t, err)

	list, err := s.ListDecks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "d2", list[0].ID)
	assert.Equal(t, "d1", list[1].ID)

	require.NoError(t, s.DeleteDeck(ctx, "d1"))
	assert.ErrorIs(t, s.DeleteDeck(ctx, "d1"), domain.ErrDeckNotFound)
	list, err = s.ListDecks(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))
	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.Error(t, err)
}

func TestJournal_AppendListPrune(t *testing.T) {
	db := openTestDB(t)
	j := NewJournal(db, 3)
	ctx := context.Background()

	for i := range 5 {
		cmd := history.NewCommand(history.UpdateElement, "s1", "a")
		cmd.Params = map[string]any{"n": float64(i)}
		require.NoError(t, j.Append(ctx, "d1", cmd))
	}
	require.NoError(t, j.Append(ctx, "d2", history.NewCommand(history.AddSlide, "s9")))

	got, err := j.List(ctx, "d1", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, float64(2), got[0].Command.Params["n"])
	assert.Equal(t, float64(4), got[2].Command.Params["n"])
	assert.Equal(t, history.UpdateElement, got[0].Command.Type)
	assert.Less(t, got[0].Seq, got[1].Seq)

	last, err := j.List(ctx, "d1", 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, float64(4), last[0].Command.Params["n"])

	require.NoError(t, j.Clear(ctx, "d1"))
	got, err = j.List(ctx, "d1", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	other, err := j.List(ctx, "d2", 0)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
