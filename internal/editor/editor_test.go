package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckeditor/internal/domain"
	"deckeditor/internal/history"
)

func box(x, y, w, h float64) domain.Bounds {
	return domain.Bounds{X: x, Y: y, Width: w, Height: h}
}

func shape(id string, b domain.Bounds) domain.Element {
	return domain.Element{ID: id, Type: domain.ElementShape, Bounds: b}
}

func deckWith(els ...domain.Element) *domain.Deck {
	return &domain.Deck{
		Meta:     domain.DeckMeta{ID: "d1", Title: "Deck"},
		Settings: domain.DeckSettings{Width: 1280, Height: 720},
		Slides:   []domain.Slide{{ID: "s1", Elements: els}},
	}
}

func newEditor(t *testing.T, els ...domain.Element) *Editor {
	t.Helper()
	e := New()
	e.SetDeck(deckWith(els...))
	return e
}

func element(t *testing.T, e *Editor, id string) domain.Element {
	t.Helper()
	el, ok := e.State().CurrentSlide().Element(id)
	require.True(t, ok, "element %s", id)
	return el
}

type fakeStore struct {
	deck *domain.Deck
	err  error
}

func (f *fakeStore) LoadDeck(_ context.Context, id string) (*domain.Deck, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.deck.Clone(), nil
}

func (f *fakeStore) SaveDeck(_ context.Context, d *domain.Deck) (*domain.SaveAck, error) {
	return &domain.SaveAck{DeckID: d.Meta.ID, Version: 1}, nil
}

func TestLoadDeck_NotFoundCreatesShell(t *testing.T) {
	e := New(WithStore(&fakeStore{err: domain.ErrDeckNotFound}))
	require.NoError(t, e.LoadDeck(context.Background(), "fresh"))

	s := e.State()
	require.NotNil(t, s.Deck)
	assert.Equal(t, "fresh", s.Deck.Meta.ID)
	assert.Len(t, s.Deck.Slides, 1)
	assert.False(t, s.IsLoading)
}

func TestLoadDeck_TransportErrorLeavesNoDeck(t *testing.T) {
	e := New(WithStore(&fakeStore{err: errors.New("connection refused")}))
	err := e.LoadDeck(context.Background(), "d1")
	require.Error(t, err)

	s := e.State()
	assert.Nil(t, s.Deck)
	assert.Contains(t, s.Error, "connection refused")
}

func TestLoadDeck_InvalidDocumentRejected(t *testing.T) {
	bad := deckWith(shape("a", box(0, 0, 10, 10)), shape("a", box(5, 5, 10, 10)))
	e := New(WithStore(&fakeStore{deck: bad}))
	err := e.LoadDeck(context.Background(), "d1")
	require.ErrorIs(t, err, domain.ErrInvalidDeck)
	assert.Nil(t, e.State().Deck)
}

func TestSetDeck_NormalizesGroupBounds(t *testing.T) {
	g := domain.Element{ID: "g", Type: domain.ElementGroup, Bounds: box(0, 0, 1, 1), Children: []domain.Element{
		shape("a", box(10, 10, 20, 20)),
		shape("b", box(50, 50, 10, 10)),
	}}
	e := newEditor(t, g)
	assert.Equal(t, box(10, 10, 50, 50), element(t, e, "g").Bounds)
}

func TestSubscribe_ReceivesSnapshotsAndUnsubscribes(t *testing.T) {
	e := newEditor(t, shape("a", box(0, 0, 10, 10)))

	var mu sync.Mutex
	var versions []uint64
	unsub := e.Subscribe(func(s *State) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
	})

	require.True(t, e.SelectElement("a", false))
	require.True(t, e.ClearSelection())
	unsub()
	unsub()
	require.True(t, e.SelectElement("a", false))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, versions, 2)
	assert.Less(t, versions[0], versions[1])
}

func TestCommandHook_FiresOnRecordedCommands(t *testing.T) {
	var got []history.CommandType
	e := New(WithCommandHook(func(deckID string, cmd history.Command) {
		assert.Equal(t, "d1", deckID)
		got = append(got, cmd.Type)
	}))
	e.SetDeck(deckWith(shape("a", box(0, 0, 10, 10))))

	e.SelectElement("a", false)
	e.UpdateElement("a", ElementPatch{Content: ptr("hi")})

	assert.Equal(t, []history.CommandType{history.UpdateElement}, got)
}

func TestSetZoom_Clamps(t *testing.T) {
	e := newEditor(t)
	e.SetZoom(100)
	assert.Equal(t, MaxZoom, e.State().Zoom)
	e.SetZoom(0)
	assert.Equal(t, MinZoom, e.State().Zoom)
}

func TestMarkSaved_OnlyTouchesTimestamp(t *testing.T) {
	saved := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e := newEditor(t, shape("a", box(0, 0, 10, 10)))
	e.SetSaving(true)
	before := e.State().Deck

	require.True(t, e.MarkSaved(domain.SaveAck{DeckID: "d1", UpdatedAt: saved}, nil))
	s := e.State()
	assert.False(t, s.IsSaving)
	assert.Equal(t, saved, s.Deck.Meta.UpdatedAt)
	assert.Equal(t, before.Slides, s.Deck.Slides)
	assert.False(t, s.LastSavedAt.IsZero())

	assert.False(t, e.MarkSaved(domain.SaveAck{DeckID: "other"}, nil))
}

func TestMarkSaved_RefusedWhenContentMoved(t *testing.T) {
	e := newEditor(t, shape("a", box(0, 0, 10, 10)))
	e.SetSaving(true)
	version := e.State().Version

	var seen *State
	ok := e.MarkSaved(domain.SaveAck{DeckID: "d1", UpdatedAt: time.Unix(5, 0)}, func(s *State) bool {
		seen = s
		return false
	})
	assert.False(t, ok)
	require.NotNil(t, seen)
	assert.Equal(t, "d1", seen.Deck.Meta.ID)

	s := e.State()
	assert.Equal(t, version, s.Version, "state untouched")
	assert.True(t, s.IsSaving)
	assert.True(t, s.LastSavedAt.IsZero())
	assert.True(t, s.Deck.Meta.UpdatedAt.IsZero())
}

func TestSetInteraction_ClearsGuidesWhenIdle(t *testing.T) {
	e := newEditor(t)
	e.SetInteraction(Interaction{DraggingElementID: "a"})
	e.SetSnapGuides([]Guide{{Axis: AxisX, Position: 640}})
	require.True(t, e.State().IsDragging())
	require.Len(t, e.State().SnapGuides, 1)

	e.SetInteraction(Interaction{})
	assert.False(t, e.State().IsDragging())
	assert.Empty(t, e.State().SnapGuides)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "q3-roadmap-2024", Slugify("  Q3 Roadmap: 2024! "))
}
