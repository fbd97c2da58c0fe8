package editor

import (
	"reflect"

	"github.com/google/uuid"

	"deckeditor/internal/domain"
	"deckeditor/internal/history"
)

// ElementPatch is a partial element update. Nil fields are left alone; Style and
// Data are merged key by key and a nil value deletes the key.
type ElementPatch struct {
	X           *float64       `json:"x,omitempty"`
	Y           *float64       `json:"y,omitempty"`
	Width       *float64       `json:"width,omitempty"`
	Height      *float64       `json:"height,omitempty"`
	Rotation    *float64       `json:"rotation,omitempty"`
	Content     *string        `json:"content,omitempty"`
	Locked      *bool          `json:"locked,omitempty"`
	Hidden      *bool          `json:"hidden,omitempty"`
	Name        *string        `json:"name,omitempty"`
	AspectRatio *float64       `json:"aspectRatio,omitempty"`
	Style       map[string]any `json:"style,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// BoundsPatch sets all four bounds fields.
func BoundsPatch(b domain.Bounds) ElementPatch {
	return ElementPatch{X: &b.X, Y: &b.Y, Width: &b.Width, Height: &b.Height}
}

// Apply returns a patched copy of el. Patching a group's bounds maps its children
// from the old box onto the new one. NaN and infinite numbers are ignored.
func (p ElementPatch) Apply(el domain.Element) domain.Element {
	out := el.Clone()
	b := out.Bounds
	setf(&b.X, p.X)
	setf(&b.Y, p.Y)
	if p.Width != nil && *p.Width >= 0 && domain.Finite(*p.Width) {
		b.Width = *p.Width
	}
	if p.Height != nil && *p.Height >= 0 && domain.Finite(*p.Height) {
		b.Height = *p.Height
	}
	setf(&out.Rotation, p.Rotation)
	if p.Content != nil {
		out.Content = *p.Content
	}
	if p.Locked != nil {
		out.Metadata.Locked = *p.Locked
	}
	if p.Hidden != nil {
		out.Metadata.Hidden = *p.Hidden
	}
	if p.Name != nil {
		out.Metadata.Name = *p.Name
	}
	if p.AspectRatio != nil && *p.AspectRatio >= 0 && domain.Finite(*p.AspectRatio) {
		out.Metadata.AspectRatio = *p.AspectRatio
	}
	out.Style = mergeMap(out.Style, p.Style)
	out.Data = mergeMap(out.Data, p.Data)

	if out.IsGroup() && len(out.Children) > 0 && b != out.Bounds {
		mapChildren(out.Children, out.Bounds, b)
		out.RecalculateGroupBounds()
	} else {
		out.Bounds = b
	}
	return out
}

func setf(dst *float64, v *float64) {
	if v != nil && domain.Finite(*v) {
		*dst = *v
	}
}

func mergeMap(base, patch map[string]any) map[string]any {
	if len(patch) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		if v == nil {
			delete(base, k)
			continue
		}
		base[k] = v
	}
	return base
}

// mapChildren scales and translates every descendant from box from onto box to.
func mapChildren(children []domain.Element, from, to domain.Bounds) {
	sx, sy := 1.0, 1.0
	if from.Width > 0 {
		sx = to.Width / from.Width
	}
	if from.Height > 0 {
		sy = to.Height / from.Height
	}
	domain.Walk(children, func(c *domain.Element) bool {
		if c.IsGroup() && len(c.Children) > 0 {
			return true
		}
		c.Bounds = domain.Bounds{
			X:      to.X + (c.Bounds.X-from.X)*sx,
			Y:      to.Y + (c.Bounds.Y-from.Y)*sy,
			Width:  c.Bounds.Width * sx,
			Height: c.Bounds.Height * sy,
		}
		return true
	})
}

// ElementUpdate pairs an element id with its patch.
type ElementUpdate struct {
	ID    string       `json:"id"`
	Patch ElementPatch `json:"patch"`
}

// ── Operations ──────────────────────────────────────────────

// AddElement appends el to the current slide's top-level list and returns its id.
// An empty id is filled in; an id already present on the slide is refused.
func (e *Editor) AddElement(el domain.Element) string {
	el = el.Clone()
	if el.ID == "" {
		el.ID = uuid.New().String()
	}
	el.RecalculateGroupBounds()
	if domain.Validate(&domain.Deck{
		Meta:   domain.DeckMeta{ID: "check"},
		Slides: []domain.Slide{{ID: "check", Elements: []domain.Element{el}}},
	}) != nil {
		return ""
	}
	var id string
	e.editSlide(func(s *State, slide *domain.Slide) bool {
		ids := slide.ElementIDs()
		collides := false
		domain.Walk([]domain.Element{el}, func(c *domain.Element) bool {
			collides = ids[c.ID]
			return !collides
		})
		if collides {
			return false
		}
		before := slide.Clone()
		slide.Elements = append(slide.Elements, el)
		s.record(e.slideCommand(history.AddElement, s, before, el.ID))
		id = el.ID
		return true
	})
	return id
}

// UpdateElement patches one element of the current slide. The id is looked up in
// the opened group first, then among top-level elements, then in nested groups.
func (e *Editor) UpdateElement(id string, patch ElementPatch) bool {
	return e.editSlide(func(s *State, slide *domain.Slide) bool {
		loc, found := resolve(slide, s.OpenedGroupID, id)
		before, after, ok := applyPatch(slide, loc, found, patch)
		if !ok {
			return false
		}
		cmd := e.newCommand(history.UpdateElement, slide.ID, id)
		cmd.BeforeElements = []domain.Element{before}
		cmd.AfterElements = []domain.Element{after}
		s.record(cmd)
		return true
	})
}

// BatchUpdateElements applies several patches as one undoable command and returns
// how many elements changed. Unknown ids are skipped.
func (e *Editor) BatchUpdateElements(updates []ElementUpdate) int {
	n := 0
	e.editSlide(func(s *State, slide *domain.Slide) bool {
		before, after, ids := applyAll(slide, s.OpenedGroupID, updates)
		if len(ids) == 0 {
			return false
		}
		cmd := e.newCommand(history.BatchUpdate, slide.ID, ids...)
		cmd.BeforeElements = before
		cmd.AfterElements = after
		s.record(cmd)
		n = len(ids)
		return true
	})
	return n
}

// PreviewElements applies patches without recording a command. It is used for
// intermediate gesture frames; CommitGesture records the outcome.
func (e *Editor) PreviewElements(updates []ElementUpdate) bool {
	return e.editSlide(func(s *State, slide *domain.Slide) bool {
		_, _, ids := applyAll(slide, s.OpenedGroupID, updates)
		return len(ids) > 0
	})
}

// CommitGesture records one command turning the given starting copies into the
// elements' current state. Nothing is recorded when nothing moved.
func (e *Editor) CommitGesture(t history.CommandType, before []domain.Element) bool {
	return e.editSlide(func(s *State, slide *domain.Slide) bool {
		var b, a []domain.Element
		var ids []string
		for _, old := range before {
			cur, ok := slide.Element(old.ID)
			if !ok || reflect.DeepEqual(cur, old) {
				continue
			}
			b = append(b, old.Clone())
			a = append(a, cur)
			ids = append(ids, old.ID)
		}
		if len(ids) == 0 {
			return false
		}
		cmd := e.newCommand(t, slide.ID, ids...)
		cmd.BeforeElements = b
		cmd.AfterElements = a
		s.record(cmd)
		return true
	})
}

// DeleteElement removes one element from the current slide.
func (e *Editor) DeleteElement(id string) bool {
	return e.DeleteElements([]string{id})
}

// DeleteElements removes the given elements, dropping groups left empty and
// animation references to anything removed.
func (e *Editor) DeleteElements(ids []string) bool {
	return e.editSlide(func(s *State, slide *domain.Slide) bool {
		before := slide.Clone()
		removed := removeAll(slide, ids)
		if len(removed) == 0 {
			return false
		}
		slide.PruneTimeline()
		s.record(e.slideCommand(history.DeleteElements, s, before, removed...))
		s.sanitize()
		return true
	})
}

// ToggleElementLock flips the locked flag of an element.
func (e *Editor) ToggleElementLock(id string) bool {
	return e.editSlide(func(s *State, slide *domain.Slide) bool {
		loc, ok := slide.Find(id)
		if !ok {
			return false
		}
		before := slide.At(loc).Clone()
		after := before.Clone()
		after.Metadata.Locked = !after.Metadata.Locked
		slide.Replace(after)
		cmd := e.newCommand(history.ToggleLock, slide.ID, id)
		cmd.BeforeElements = []domain.Element{before}
		cmd.AfterElements = []domain.Element{after}
		s.record(cmd)
		return true
	})
}

// DuplicateOffset is how far copies are moved from their source.
const DuplicateOffset = 20.0

// DuplicateElement copies an element with fresh ids, offsets it, appends it at
// the top level, selects it and returns its id.
func (e *Editor) DuplicateElement(id string) string {
	var newID string
	e.editSlide(func(s *State, slide *domain.Slide) bool {
		src, ok := slide.Element(id)
		if !ok {
			return false
		}
		before := slide.Clone()
		dup := offsetCopy(src, DuplicateOffset)
		slide.Elements = append(slide.Elements, dup)
		s.record(e.slideCommand(history.Duplicate, s, before, dup.ID))
		s.SelectedElementIDs = []string{dup.ID}
		newID = dup.ID
		return true
	})
	return newID
}

// ── helpers ─────────────────────────────────────────────────

// resolve returns the location of id, trying the opened group's children, then
// the top-level lists, then every nested group.
func resolve(slide *domain.Slide, openedGroupID, id string) (domain.Location, bool) {
	if openedGroupID != "" {
		if gl, ok := slide.Find(openedGroupID); ok {
			g := slide.At(gl)
			for i := range g.Children {
				if g.Children[i].ID == id {
					return domain.Location{LayerIndex: gl.LayerIndex, Path: append(append([]int(nil), gl.Path...), i)}, true
				}
			}
		}
	}
	for i := range slide.Elements {
		if slide.Elements[i].ID == id {
			return domain.Location{LayerIndex: -1, Path: []int{i}}, true
		}
	}
	for li := range slide.Layers {
		for i := range slide.Layers[li].Elements {
			if slide.Layers[li].Elements[i].ID == id {
				return domain.Location{LayerIndex: li, Path: []int{i}}, true
			}
		}
	}
	return slide.Find(id)
}

// applyPatch patches the element at loc in place. ok is false when loc is missing
// or the patch changes nothing.
func applyPatch(slide *domain.Slide, loc domain.Location, found bool, patch ElementPatch) (before, after domain.Element, ok bool) {
	if !found {
		return before, after, false
	}
	before = slide.At(loc).Clone()
	patched := patch.Apply(before)
	if reflect.DeepEqual(patched, before) {
		return before, after, false
	}
	slide.Replace(patched)
	after, _ = slide.Element(before.ID)
	return before, after, true
}

func applyAll(slide *domain.Slide, openedGroupID string, updates []ElementUpdate) (before, after []domain.Element, ids []string) {
	for _, u := range updates {
		loc, found := resolve(slide, openedGroupID, u.ID)
		b, a, ok := applyPatch(slide, loc, found, u.Patch)
		if !ok {
			continue
		}
		before = append(before, b)
		after = append(after, a)
		ids = append(ids, u.ID)
	}
	return before, after, ids
}

func removeAll(slide *domain.Slide, ids []string) []string {
	var removed []string
	for _, id := range ids {
		if _, ok := slide.Remove(id); ok {
			removed = append(removed, id)
		}
	}
	return removed
}

// offsetCopy clones el with fresh ids, moved by d on both axes.
func offsetCopy(el domain.Element, d float64) domain.Element {
	els := []domain.Element{el.Clone()}
	reid(&els[0], nil)
	domain.Walk(els, func(c *domain.Element) bool {
		c.Bounds = c.Bounds.Translate(d, d)
		return true
	})
	return els[0]
}

// slideCommand builds a structural command holding before/after copies of the current slide.
func (e *Editor) slideCommand(t history.CommandType, s *State, before domain.Slide, targets ...string) history.Command {
	slide := s.CurrentSlide()
	cmd := e.newCommand(t, slide.ID, targets...)
	cmd.SlideIndex = s.CurrentSlideIndex
	cmd.BeforeSlide = &before
	cmd.AfterSlide = ptr(slide.Clone())
	return cmd
}
