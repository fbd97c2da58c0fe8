package interaction

import (
	"go.uber.org/zap"

	"deckeditor/internal/canvas"
	"deckeditor/internal/domain"
	"deckeditor/internal/editor"
	"deckeditor/internal/history"
)

// Handle names one of the eight resize grips by compass direction.
type Handle string

const (
	HandleNW Handle = "nw"
	HandleN  Handle = "n"
	HandleNE Handle = "ne"
	HandleE  Handle = "e"
	HandleSE Handle = "se"
	HandleS  Handle = "s"
	HandleSW Handle = "sw"
	HandleW  Handle = "w"
)

// MinSize is the smallest width or height a resize can produce.
const MinSize = 1.0

// signs returns which edges a handle moves: -1 for left/top, +1 for right/bottom, 0 for none.
func (h Handle) signs() (sx, sy float64, ok bool) {
	switch h {
	case HandleNW:
		return -1, -1, true
	case HandleN:
		return 0, -1, true
	case HandleNE:
		return 1, -1, true
	case HandleE:
		return 1, 0, true
	case HandleSE:
		return 1, 1, true
	case HandleS:
		return 0, 1, true
	case HandleSW:
		return -1, 1, true
	case HandleW:
		return -1, 0, true
	}
	return 0, 0, false
}

// Modifiers are the keys held during a resize.
type Modifiers struct {
	// KeepAspect keeps the element's declared aspect ratio.
	KeepAspect bool
	// FromCenter resizes symmetrically about the element's centre.
	FromCenter bool
}

// ResizeBounds computes the new box when handle h of b0 is dragged by (dx, dy)
// canvas units. aspect is width/height; 0 means the element has none.
func ResizeBounds(b0 domain.Bounds, h Handle, dx, dy float64, mods Modifiers, aspect float64) domain.Bounds {
	sx, sy, ok := h.signs()
	if !ok {
		return b0
	}
	grow := 1.0
	if mods.FromCenter {
		grow = 2
	}
	w := max(b0.Width+sx*dx*grow, MinSize)
	ht := max(b0.Height+sy*dy*grow, MinSize)

	if mods.KeepAspect && aspect > 0 {
		switch {
		case sx != 0 && sy != 0:
			if w/aspect >= ht {
				ht = w / aspect
			} else {
				w = ht * aspect
			}
		case sx != 0:
			ht = w / aspect
		default:
			w = ht * aspect
		}
		if ht < MinSize {
			ht = MinSize
			w = ht * aspect
		}
		if w < MinSize {
			w = MinSize
			ht = w / aspect
		}
	}

	out := domain.Bounds{Width: w, Height: ht}
	switch {
	case mods.FromCenter || sx == 0:
		out.X = b0.CenterX() - w/2
	case sx < 0:
		out.X = b0.Right() - w
	default:
		out.X = b0.X
	}
	switch {
	case mods.FromCenter || sy == 0:
		out.Y = b0.CenterY() - ht/2
	case sy < 0:
		out.Y = b0.Bottom() - ht
	default:
		out.Y = b0.Y
	}
	return out
}

// ResizeStart describes the pointer-down on a resize handle.
type ResizeStart struct {
	ElementID string
	Handle    Handle
	Screen    canvas.Point
	Zoom      float64
	Pan       canvas.Point
}

type resizeState struct {
	handle Handle
	aspect float64
}

// StartResize begins resizing one unlocked element from the given handle.
func (o *Orchestrator) StartResize(in ResizeStart) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != idle {
		return false
	}
	if _, _, ok := in.Handle.signs(); !ok {
		return false
	}
	slide := o.target.State().CurrentSlide()
	if slide == nil {
		return false
	}
	el, ok := slide.Element(in.ElementID)
	if !ok || el.Metadata.Locked {
		return false
	}

	o.transform = o.surface.Transform(in.Zoom, in.Pan)
	o.start = o.transform.ScreenToCanvas(in.Screen.X, in.Screen.Y)
	o.initial = map[string]domain.Bounds{el.ID: el.Bounds}
	o.before = []domain.Element{el}
	o.primaryID = el.ID
	o.resize = resizeState{handle: in.Handle, aspect: el.Metadata.AspectRatio}
	o.mode = resizing
	o.gen++

	o.target.SetInteraction(editor.Interaction{ResizingElementID: el.ID})
	o.logger.Debug("resize started", zap.String("element", el.ID), zap.String("handle", string(in.Handle)))
	return true
}

// UpdateResize stretches the element towards the pointer. The write is deferred
// to the next frame.
func (o *Orchestrator) UpdateResize(screenX, screenY float64, mods Modifiers) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != resizing {
		return false
	}
	p := o.transform.ScreenToCanvas(screenX, screenY)
	b := ResizeBounds(o.initial[o.primaryID], o.resize.handle, p.X-o.start.X, p.Y-o.start.Y, mods, o.resize.aspect)
	o.schedule(&frame{updates: []editor.ElementUpdate{{ID: o.primaryID, Patch: editor.BoundsPatch(b)}}})
	return true
}

// EndResize writes any pending frame, clears the resizing flag and records the
// resize as one command.
func (o *Orchestrator) EndResize() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != resizing {
		return false
	}
	o.finish(history.ResizeElement)
	return true
}
