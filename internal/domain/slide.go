package domain

import "sort"

// Location addresses an element inside a slide. LayerIndex is -1 for the slide-level
// list; Path indexes the top-level list first and then nested group children.
type Location struct {
	LayerIndex int
	Path       []int
}

// Depth is 1 for top-level elements, 2 for direct group children, and so on.
func (l Location) Depth() int { return len(l.Path) }

func (l Location) parent() Location {
	return Location{LayerIndex: l.LayerIndex, Path: l.Path[:len(l.Path)-1]}
}

func (s *Slide) list(layerIndex int) *[]Element {
	if layerIndex < 0 {
		return &s.Elements
	}
	return &s.Layers[layerIndex].Elements
}

// Find locates an element by id anywhere in the slide, including group children.
func (s *Slide) Find(id string) (Location, bool) {
	if id == "" {
		return Location{}, false
	}
	if path, ok := findPath(s.Elements, id); ok {
		return Location{LayerIndex: -1, Path: path}, true
	}
	for li := range s.Layers {
		if path, ok := findPath(s.Layers[li].Elements, id); ok {
			return Location{LayerIndex: li, Path: path}, true
		}
	}
	return Location{}, false
}

func findPath(els []Element, id string) ([]int, bool) {
	for i := range els {
		if els[i].ID == id {
			return []int{i}, true
		}
		if len(els[i].Children) > 0 {
			if sub, ok := findPath(els[i].Children, id); ok {
				return append([]int{i}, sub...), true
			}
		}
	}
	return nil, false
}

// At returns a pointer to the element at loc. loc must come from Find on the same slide.
func (s *Slide) At(loc Location) *Element {
	list := *s.list(loc.LayerIndex)
	el := &list[loc.Path[0]]
	for _, p := range loc.Path[1:] {
		el = &el.Children[p]
	}
	return el
}

// Element returns a copy of the element with the given id.
func (s *Slide) Element(id string) (Element, bool) {
	loc, ok := s.Find(id)
	if !ok {
		return Element{}, false
	}
	return s.At(loc).Clone(), true
}

// Ancestors returns the ids of the groups containing id, outermost first.
func (s *Slide) Ancestors(id string) []string {
	loc, ok := s.Find(id)
	if !ok || loc.Depth() == 1 {
		return nil
	}
	ids := make([]string, 0, loc.Depth()-1)
	for d := 1; d < loc.Depth(); d++ {
		ids = append(ids, s.At(Location{LayerIndex: loc.LayerIndex, Path: loc.Path[:d]}).ID)
	}
	return ids
}

// ElementIDs returns every id in the slide, nested children included.
func (s *Slide) ElementIDs() map[string]bool {
	ids := make(map[string]bool)
	collect := func(e *Element) bool {
		ids[e.ID] = true
		return true
	}
	Walk(s.Elements, collect)
	for _, l := range s.Layers {
		Walk(l.Elements, collect)
	}
	return ids
}

// Replace swaps in el for the element with the same id and recomputes the
// bounding boxes of every group above it.
func (s *Slide) Replace(el Element) bool {
	loc, ok := s.Find(el.ID)
	if !ok {
		return false
	}
	*s.At(loc) = el
	s.At(Location{LayerIndex: loc.LayerIndex, Path: loc.Path[:1]}).RecalculateGroupBounds()
	return true
}

// Remove deletes the element with the given id from wherever it lives. Groups left
// without children are removed too; remaining ancestors get their bounds recomputed.
func (s *Slide) Remove(id string) (Element, bool) {
	loc, ok := s.Find(id)
	if !ok {
		return Element{}, false
	}
	removed := s.At(loc).Clone()
	for {
		if loc.Depth() == 1 {
			list := s.list(loc.LayerIndex)
			*list = append((*list)[:loc.Path[0]], (*list)[loc.Path[0]+1:]...)
			return removed, true
		}
		parentLoc := loc.parent()
		parent := s.At(parentLoc)
		idx := loc.Path[len(loc.Path)-1]
		parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
		if len(parent.Children) > 0 {
			s.At(Location{LayerIndex: loc.LayerIndex, Path: loc.Path[:1]}).RecalculateGroupBounds()
			return removed, true
		}
		loc = parentLoc
	}
}

// Linearize returns the paint order: slide-level elements first, then layers by ascending order.
func (s *Slide) Linearize() []Element {
	out := append([]Element(nil), s.Elements...)
	for _, l := range s.SortedLayers() {
		out = append(out, l.Elements...)
	}
	return out
}

// SortedLayers returns the layers ordered bottom to top.
func (s *Slide) SortedLayers() []Layer {
	layers := append([]Layer(nil), s.Layers...)
	sort.SliceStable(layers, func(i, j int) bool { return layers[i].Order < layers[j].Order })
	return layers
}

// Flatten moves every layer element into the slide-level list in paint order and
// empties the layers. Layer membership is not preserved.
func (s *Slide) Flatten(order []Element) {
	s.Elements = order
	for i := range s.Layers {
		s.Layers[i].Elements = []Element{}
	}
}

// RecalculateGroups restores the bounding-box invariant of every group in the slide.
func (s *Slide) RecalculateGroups() {
	for i := range s.Elements {
		s.Elements[i].RecalculateGroupBounds()
	}
	for li := range s.Layers {
		for i := range s.Layers[li].Elements {
			s.Layers[li].Elements[i].RecalculateGroupBounds()
		}
	}
}

// PruneTimeline drops ids that no longer exist from animation steps; empty steps go away.
func (s *Slide) PruneTimeline() {
	if s.Timeline == nil {
		return
	}
	live := s.ElementIDs()
	steps := s.Timeline.Steps[:0]
	for _, st := range s.Timeline.Steps {
		ids := st.ElementIDs[:0]
		for _, id := range st.ElementIDs {
			if live[id] {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}
		st.ElementIDs = ids
		steps = append(steps, st)
	}
	s.Timeline.Steps = steps
}
