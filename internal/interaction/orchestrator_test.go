package interaction

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckeditor/internal/canvas"
	"deckeditor/internal/domain"
	"deckeditor/internal/editor"
	"deckeditor/internal/history"
)

func box(x, y, w, h float64) domain.Bounds {
	return domain.Bounds{X: x, Y: y, Width: w, Height: h}
}

func setup(t *testing.T, els ...domain.Element) (*editor.Editor, *Orchestrator, *ManualScheduler) {
	t.Helper()
	ed := editor.New()
	ed.SetDeck(&domain.Deck{
		Meta:     domain.DeckMeta{ID: "d1"},
		Settings: domain.DeckSettings{Width: 1280, Height: 720},
		Slides:   []domain.Slide{{ID: "s1", Elements: els}},
	})
	identity := canvas.MeasuredSurface{
		Logical: canvas.Size{Width: 1280, Height: 720},
		Measure: func() canvas.Rect { return canvas.Rect{Width: 1280, Height: 720} },
	}
	frames := NewManualScheduler()
	return ed, NewOrchestrator(ed, identity, WithFrameScheduler(frames)), frames
}

func bounds(t *testing.T, ed *editor.Editor, id string) domain.Bounds {
	t.Helper()
	el, ok := ed.State().CurrentSlide().Element(id)
	require.True(t, ok)
	return el.Bounds
}

func el(id string, b domain.Bounds) domain.Element {
	return domain.Element{ID: id, Type: domain.ElementShape, Bounds: b}
}

func TestDrag_RigidMultiSelection(t *testing.T) {
	ed, o, frames := setup(t, el("a", box(10, 20, 30, 40)), el("b", box(100, 200, 50, 60)))

	require.True(t, o.StartDrag(DragStart{PrimaryID: "a", SelectedIDs: []string{"a", "b"}, Screen: canvas.Point{X: 15, Y: 25}, Zoom: 1}))
	assert.Equal(t, "a", ed.State().Interaction.DraggingElementID)

	require.True(t, o.UpdateDrag(18, 24, false))
	require.True(t, o.UpdateDrag(20, 22, false))
	assert.Equal(t, box(10, 20, 30, 40), bounds(t, ed, "a"), "nothing written before the frame")
	assert.Equal(t, 1, frames.Pending(), "moves coalesce into one frame")

	require.Equal(t, 1, frames.Tick())
	assert.Equal(t, box(15, 17, 30, 40), bounds(t, ed, "a"))
	assert.Equal(t, box(105, 197, 50, 60), bounds(t, ed, "b"))

	require.True(t, o.EndDrag())
	s := ed.State()
	assert.False(t, s.IsDragging())
	require.Equal(t, 1, s.History.UndoLen())
	cmd := s.History.UndoStack()[0]
	assert.Equal(t, history.MoveElements, cmd.Type)
	assert.ElementsMatch(t, []string{"a", "b"}, cmd.TargetIDs)
}

func TestDrag_EndFlushesPendingFrame(t *testing.T) {
	ed, o, frames := setup(t, el("a", box(0, 0, 10, 10)))
	o.StartDrag(DragStart{PrimaryID: "a", Screen: canvas.Point{X: 5, Y: 5}, Zoom: 1})
	o.UpdateDrag(55, 65, false)

	require.True(t, o.EndDrag())
	assert.Equal(t, box(50, 60, 10, 10), bounds(t, ed, "a"))
	assert.Equal(t, 0, frames.Pending())
	assert.Equal(t, 0, frames.Tick())
	assert.False(t, o.Active())

	require.True(t, ed.Undo())
	assert.Equal(t, box(0, 0, 10, 10), bounds(t, ed, "a"))
}

func TestDrag_ZoomedSurface(t *testing.T) {
	ed := editor.New()
	ed.SetDeck(&domain.Deck{Meta: domain.DeckMeta{ID: "d"}, Slides: []domain.Slide{{ID: "s", Elements: []domain.Element{el("a", box(0, 0, 10, 10))}}}})
	frames := NewManualScheduler()
	half := canvas.Viewport{Logical: canvas.Size{Width: 1280, Height: 720}, Bounds: canvas.Rect{Width: 640, Height: 360}}
	o := NewOrchestrator(ed, half, WithFrameScheduler(frames))

	o.StartDrag(DragStart{PrimaryID: "a", Screen: canvas.Point{X: 0, Y: 0}, Zoom: 1})
	o.UpdateDrag(10, 5, false)
	o.EndDrag()
	assert.Equal(t, box(20, 10, 10, 10), bounds(t, ed, "a"))
}

func TestDrag_SnapsToSibling(t *testing.T) {
	ed, o, frames := setup(t, el("a", box(100, 100, 50, 50)), el("b", box(300, 100, 50, 50)))
	o.StartDrag(DragStart{PrimaryID: "a", Screen: canvas.Point{X: 110, Y: 110}, Zoom: 1})

	o.UpdateDrag(307, 110, true)
	frames.Tick()

	assert.Equal(t, box(300, 100, 50, 50), bounds(t, ed, "a"))
	assert.Contains(t, ed.State().SnapGuides, editor.Guide{Axis: editor.AxisX, Position: 300})

	o.EndDrag()
	assert.Empty(t, ed.State().SnapGuides)
}

func TestDrag_LockedElements(t *testing.T) {
	locked := el("l", box(0, 0, 10, 10))
	locked.Metadata.Locked = true
	ed, o, _ := setup(t, locked, el("a", box(50, 50, 10, 10)))

	assert.False(t, o.StartDrag(DragStart{PrimaryID: "l", Zoom: 1}))

	require.True(t, o.StartDrag(DragStart{PrimaryID: "a", SelectedIDs: []string{"a", "l"}, Screen: canvas.Point{X: 50, Y: 50}, Zoom: 1}))
	o.UpdateDrag(60, 60, false)
	o.EndDrag()
	assert.Equal(t, box(0, 0, 10, 10), bounds(t, ed, "l"))
	assert.Equal(t, box(60, 60, 10, 10), bounds(t, ed, "a"))
}

func TestGesture_OneAtATime(t *testing.T) {
	_, o, _ := setup(t, el("a", box(0, 0, 10, 10)))
	require.True(t, o.StartDrag(DragStart{PrimaryID: "a", Zoom: 1}))
	assert.False(t, o.StartResize(ResizeStart{ElementID: "a", Handle: HandleSE}))
	assert.False(t, o.UpdateResize(1, 1, Modifiers{}))
	assert.False(t, o.EndResize())
	require.True(t, o.EndDrag())
	assert.False(t, o.EndDrag())
}

func TestCancel_RestoresWithoutCommand(t *testing.T) {
	ed, o, frames := setup(t, el("a", box(0, 0, 10, 10)))
	o.StartDrag(DragStart{PrimaryID: "a", Zoom: 1})
	o.UpdateDrag(40, 40, false)
	frames.Tick()
	require.Equal(t, box(40, 40, 10, 10), bounds(t, ed, "a"))

	require.True(t, o.Cancel())
	assert.Equal(t, box(0, 0, 10, 10), bounds(t, ed, "a"))
	assert.False(t, ed.State().IsDragging())
	assert.Equal(t, 0, ed.State().History.UndoLen())
}

func TestResize_Gesture(t *testing.T) {
	ed, o, frames := setup(t, el("a", box(100, 100, 200, 100)))
	require.True(t, o.StartResize(ResizeStart{ElementID: "a", Handle: HandleSE, Screen: canvas.Point{X: 300, Y: 200}, Zoom: 1}))
	assert.Equal(t, "a", ed.State().Interaction.ResizingElementID)

	o.UpdateResize(310, 220, Modifiers{})
	frames.Tick()
	assert.Equal(t, box(100, 100, 210, 120), bounds(t, ed, "a"))

	require.True(t, o.EndResize())
	s := ed.State()
	assert.False(t, s.IsDragging())
	require.Equal(t, 1, s.History.UndoLen())
	assert.Equal(t, history.ResizeElement, s.History.UndoStack()[0].Type)
}

func TestResizeBounds_Handles(t *testing.T) {
	b0 := box(100, 100, 200, 100)
	tests := []struct {
		handle Handle
		want   domain.Bounds
	}{
		{HandleSE, box(100, 100, 210, 120)},
		{HandleNW, box(110, 120, 190, 80)},
		{HandleN, box(100, 120, 200, 80)},
		{HandleNE, box(100, 120, 210, 80)},
		{HandleE, box(100, 100, 210, 100)},
		{HandleS, box(100, 100, 200, 120)},
		{HandleSW, box(110, 100, 190, 120)},
		{HandleW, box(110, 100, 190, 100)},
	}
	for _, tt := range tests {
		t.Run(string(tt.handle), func(t *testing.T) {
			assert.Equal(t, tt.want, ResizeBounds(b0, tt.handle, 10, 20, Modifiers{}, 0))
		})
	}
}

func TestResizeBounds_Modifiers(t *testing.T) {
	b0 := box(100, 100, 200, 100)

	assert.Equal(t, box(100, 100, 1, 1), ResizeBounds(b0, HandleSE, -500, -500, Modifiers{}, 0), "minimum size")
	assert.Equal(t, box(299, 199, 1, 1), ResizeBounds(b0, HandleNW, 500, 500, Modifiers{}, 0), "anchored at the opposite corner")

	keep := Modifiers{KeepAspect: true}
	assert.Equal(t, box(100, 100, 210, 105), ResizeBounds(b0, HandleSE, 10, 0, keep, 2))
	assert.Equal(t, box(100, 97.5, 210, 105), ResizeBounds(b0, HandleE, 10, 0, keep, 2))
	assert.Equal(t, box(90, 90, 220, 110), ResizeBounds(b0, HandleN, 0, -10, keep, 2))
	assert.Equal(t, box(100, 100, 210, 100), ResizeBounds(b0, HandleE, 10, 0, keep, 0), "no declared ratio")

	assert.Equal(t, box(90, 80, 220, 140), ResizeBounds(b0, HandleSE, 10, 20, Modifiers{FromCenter: true}, 0))
	assert.Equal(t, b0, ResizeBounds(b0, Handle("x"), 10, 10, Modifiers{}, 0))
}

func TestTimerScheduler(t *testing.T) {
	s := NewTimerScheduler(time.Millisecond)
	var ran atomic.Int32
	s.Request(func() { ran.Add(1) })
	require.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, time.Millisecond)

	var cancelled atomic.Bool
	cancel := NewTimerScheduler(50 * time.Millisecond).Request(func() { cancelled.Store(true) })
	cancel()
	time.Sleep(80 * time.Millisecond)
	assert.False(t, cancelled.Load())
}
