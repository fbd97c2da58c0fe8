package interaction

import (
	"sync"

	"go.uber.org/zap"

	"deckeditor/internal/canvas"
	"deckeditor/internal/domain"
	"deckeditor/internal/editor"
	"deckeditor/internal/history"
)

// Target is the part of the editor a gesture writes to.
type Target interface {
	State() *editor.State
	PreviewElements(updates []editor.ElementUpdate) bool
	CommitGesture(t history.CommandType, before []domain.Element) bool
	SetInteraction(in editor.Interaction) bool
	SetSnapGuides(guides []editor.Guide) bool
}

type mode int

const (
	idle mode = iota
	dragging
	resizing
)

// Orchestrator runs at most one drag or resize gesture at a time. Its methods must
// not be called from an editor listener.
type Orchestrator struct {
	mu sync.Mutex

	target    Target
	surface   canvas.Surface
	frames    FrameScheduler
	threshold float64
	logger    *zap.Logger

	mode        mode
	transform   canvas.Transform
	start       canvas.Point
	before      []domain.Element
	initial     map[string]domain.Bounds
	primaryID   string
	drag        dragState
	resize      resizeState
	pending     *frame
	cancelFrame func()
	gen         uint64
}

// frame is the coalesced write waiting for the next tick.
type frame struct {
	updates []editor.ElementUpdate
	guides  []editor.Guide
}

type Option func(*Orchestrator)

func WithFrameScheduler(f FrameScheduler) Option { return func(o *Orchestrator) { o.frames = f } }
func WithSnapThreshold(t float64) Option         { return func(o *Orchestrator) { o.threshold = t } }
func WithLogger(l *zap.Logger) Option            { return func(o *Orchestrator) { o.logger = l } }

func NewOrchestrator(target Target, surface canvas.Surface, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		target:    target,
		surface:   surface,
		threshold: DefaultSnapThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.frames == nil {
		o.frames = NewTimerScheduler(DefaultFrameInterval)
	}
	return o
}

// Active reports whether a gesture is in progress.
func (o *Orchestrator) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode != idle
}

// ── Drag ────────────────────────────────────────────────────

// DragStart describes the pointer-down that begins a drag.
type DragStart struct {
	PrimaryID string
	// InitialBounds overrides the pre-drag bounds read from the editor.
	InitialBounds map[string]domain.Bounds
	SelectedIDs   []string
	Screen        canvas.Point
	Zoom          float64
	Pan           canvas.Point
}

type dragState struct {
	offset canvas.Point
	ids    []string
	set    map[string]bool
}

// StartDrag begins moving the primary element and every other selected element.
// Locked and unknown elements are left out; a locked primary refuses the drag.
func (o *Orchestrator) StartDrag(in DragStart) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != idle {
		return false
	}
	slide := o.target.State().CurrentSlide()
	if slide == nil {
		return false
	}
	primary, ok := slide.Element(in.PrimaryID)
	if !ok || primary.Metadata.Locked {
		return false
	}

	o.transform = o.surface.Transform(in.Zoom, in.Pan)
	o.start = o.transform.ScreenToCanvas(in.Screen.X, in.Screen.Y)
	o.initial = make(map[string]domain.Bounds)
	o.before = nil
	o.drag = dragState{set: make(map[string]bool)}

	ids := append([]string{in.PrimaryID}, in.SelectedIDs...)
	for _, id := range ids {
		if o.drag.set[id] {
			continue
		}
		el, ok := slide.Element(id)
		if !ok || el.Metadata.Locked {
			continue
		}
		b := el.Bounds
		if ib, ok := in.InitialBounds[id]; ok {
			b = ib
		}
		o.drag.set[id] = true
		o.drag.ids = append(o.drag.ids, id)
		o.initial[id] = b
		o.before = append(o.before, el)
	}
	pb := o.initial[in.PrimaryID]
	o.drag.offset = canvas.Point{X: o.start.X - pb.X, Y: o.start.Y - pb.Y}
	o.primaryID = in.PrimaryID
	o.mode = dragging
	o.gen++

	o.target.SetInteraction(editor.Interaction{DraggingElementID: in.PrimaryID})
	o.logger.Debug("drag started", zap.String("element", in.PrimaryID), zap.Int("selected", len(o.drag.ids)))
	return true
}

// UpdateDrag moves the dragged set so that the primary element keeps its offset to
// the pointer. The write is deferred to the next frame.
func (o *Orchestrator) UpdateDrag(screenX, screenY float64, snap bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != dragging {
		return false
	}
	p := o.transform.ScreenToCanvas(screenX, screenY)
	pb := o.initial[o.primaryID]
	candidate := pb
	candidate.X = p.X - o.drag.offset.X
	candidate.Y = p.Y - o.drag.offset.Y

	var guides []editor.Guide
	if s := o.target.State(); snap && s.Deck != nil {
		w, h := s.Deck.Settings.CanvasSize()
		candidate, guides = Snap(candidate, snapTargets(s, o.drag.set), w, h, o.threshold)
	}
	dx, dy := candidate.X-pb.X, candidate.Y-pb.Y

	f := &frame{guides: guides}
	for _, id := range o.drag.ids {
		f.updates = append(f.updates, editor.ElementUpdate{
			ID:    id,
			Patch: editor.BoundsPatch(o.initial[id].Translate(dx, dy)),
		})
	}
	o.schedule(f)
	return true
}

// EndDrag writes any pending frame, clears the dragging flag and records the
// whole drag as one command.
func (o *Orchestrator) EndDrag() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != dragging {
		return false
	}
	o.finish(history.MoveElements)
	return true
}

// ── Frames ──────────────────────────────────────────────────

// schedule replaces the pending frame and requests a tick if none is outstanding.
// Must be called with o.mu held.
func (o *Orchestrator) schedule(f *frame) {
	o.pending = f
	if o.cancelFrame != nil {
		return
	}
	gen := o.gen
	o.cancelFrame = o.frames.Request(func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.gen != gen {
			return
		}
		o.cancelFrame = nil
		o.flush()
	})
}

// flush writes the pending frame. Must be called with o.mu held.
func (o *Orchestrator) flush() {
	f := o.pending
	o.pending = nil
	if f == nil {
		return
	}
	o.target.PreviewElements(f.updates)
	o.target.SetSnapGuides(f.guides)
}

func (o *Orchestrator) stopFrames() {
	if o.cancelFrame != nil {
		o.cancelFrame()
		o.cancelFrame = nil
	}
	o.gen++
}

func (o *Orchestrator) finish(t history.CommandType) {
	o.flush()
	o.stopFrames()
	o.target.CommitGesture(t, o.before)
	o.target.SetInteraction(editor.Interaction{})
	o.logger.Debug("gesture finished", zap.String("element", o.primaryID))
	o.reset()
}

func (o *Orchestrator) reset() {
	o.mode = idle
	o.before = nil
	o.initial = nil
	o.primaryID = ""
	o.drag = dragState{}
	o.resize = resizeState{}
}

// Cancel abandons the active gesture and restores the elements to where they
// started. Nothing is recorded.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode == idle {
		return false
	}
	o.pending = nil
	o.stopFrames()
	var restore []editor.ElementUpdate
	for _, el := range o.before {
		restore = append(restore, editor.ElementUpdate{ID: el.ID, Patch: editor.BoundsPatch(el.Bounds)})
	}
	o.target.PreviewElements(restore)
	o.target.SetInteraction(editor.Interaction{})
	o.reset()
	return true
}
