package editor

import (
	"sort"

	"github.com/google/uuid"

	"deckeditor/internal/domain"
	"deckeditor/internal/history"
)

// GroupElements groups at least two elements of the current slide and returns the
// group id. When one of the ids is already a group the others are merged into it;
// nested groups are flattened into plain children either way. The group is
// appended to the slide's top-level list with the union of its children's bounds,
// and becomes the selection.
func (e *Editor) GroupElements(ids []string) string {
	var groupID string
	e.editSlide(func(s *State, slide *domain.Slide) bool {
		members := groupMembers(slide, ids)
		if len(members) < 2 {
			return false
		}
		before := slide.Clone()

		var target *domain.Element
		var children []domain.Element
		for _, id := range members {
			el, _ := slide.Element(id)
			if target == nil && el.IsGroup() {
				g := el
				g.Children = nil
				target = &g
			}
			children = append(children, leaves(el)...)
		}
		for _, id := range members {
			slide.Remove(id)
		}
		if target == nil {
			target = &domain.Element{ID: uuid.New().String(), Type: domain.ElementGroup}
		}
		target.Children = children
		target.RecalculateGroupBounds()
		slide.Elements = append(slide.Elements, *target)

		s.record(e.slideCommand(history.GroupElements, s, before, members...))
		s.SelectedElementIDs = []string{target.ID}
		s.sanitize()
		groupID = target.ID
		return true
	})
	return groupID
}

// groupMembers keeps the ids that exist on the slide, in paint order, dropping
// duplicates and elements already inside another member.
func groupMembers(slide *domain.Slide, ids []string) []string {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := slide.Find(id); ok {
			want[id] = true
		}
	}
	var out []string
	var visit func(els []domain.Element)
	visit = func(els []domain.Element) {
		for _, c := range els {
			if want[c.ID] {
				out = append(out, c.ID)
				continue
			}
			visit(c.Children)
		}
	}
	visit(slide.Linearize())
	return out
}

// leaves returns copies of the non-group elements under el, or el itself.
func leaves(el domain.Element) []domain.Element {
	if !el.IsGroup() {
		return []domain.Element{el.Clone()}
	}
	var out []domain.Element
	for _, c := range el.Children {
		out = append(out, leaves(c)...)
	}
	return out
}

// UngroupElements dissolves a group, appending its children to the slide's
// top-level list at their current positions. It returns the children's ids,
// which become the selection.
func (e *Editor) UngroupElements(groupID string) []string {
	var childIDs []string
	e.editSlide(func(s *State, slide *domain.Slide) bool {
		g, ok := slide.Element(groupID)
		if !ok || !g.IsGroup() {
			return false
		}
		before := slide.Clone()
		slide.Remove(groupID)
		for _, c := range g.Children {
			slide.Elements = append(slide.Elements, c)
			childIDs = append(childIDs, c.ID)
		}
		s.record(e.slideCommand(history.UngroupElements, s, before, groupID))
		if s.OpenedGroupID == groupID {
			s.OpenedGroupID = ""
		}
		s.SelectedElementIDs = append([]string(nil), childIDs...)
		return true
	})
	return childIDs
}

// OpenGroup enters a group so its children can be selected and edited directly.
func (e *Editor) OpenGroup(groupID string) bool {
	return e.update(func(s *State) bool {
		slide := s.CurrentSlide()
		if slide == nil || s.OpenedGroupID == groupID {
			return false
		}
		g, ok := slide.Element(groupID)
		if !ok || !g.IsGroup() {
			return false
		}
		s.OpenedGroupID = groupID
		s.SelectedElementIDs = nil
		return true
	})
}

// CloseGroup leaves the opened group and selects it.
func (e *Editor) CloseGroup() bool {
	return e.update(func(s *State) bool {
		if s.OpenedGroupID == "" {
			return false
		}
		s.SelectedElementIDs = []string{s.OpenedGroupID}
		s.OpenedGroupID = ""
		return true
	})
}

// ── Selection ───────────────────────────────────────────────

// SelectElement selects id, or toggles it in the selection when add is true.
// Clicking a grouped element selects its outermost group, unless that group is
// opened, in which case the element directly inside the opened group is selected.
// Selecting something outside the opened group closes it.
func (e *Editor) SelectElement(id string, add bool) bool {
	return e.update(func(s *State) bool {
		slide := s.CurrentSlide()
		if slide == nil {
			return false
		}
		if _, ok := slide.Find(id); !ok {
			return false
		}
		target, inOpened := selectionTarget(slide, s.OpenedGroupID, id)
		if !inOpened {
			s.OpenedGroupID = ""
		}
		switch {
		case !add:
			s.SelectedElementIDs = []string{target}
		case s.IsSelected(target):
			s.SelectedElementIDs = without(s.SelectedElementIDs, target)
		default:
			s.SelectedElementIDs = append(append([]string(nil), s.SelectedElementIDs...), target)
		}
		return true
	})
}

func selectionTarget(slide *domain.Slide, openedGroupID, id string) (target string, inOpened bool) {
	anc := slide.Ancestors(id)
	if openedGroupID != "" {
		for i, a := range anc {
			if a != openedGroupID {
				continue
			}
			if i+1 < len(anc) {
				return anc[i+1], true
			}
			return id, true
		}
		if id == openedGroupID {
			return id, true
		}
	}
	if len(anc) > 0 {
		return anc[0], false
	}
	return id, false
}

// SelectElements replaces the selection with the ids that exist on the current slide.
func (e *Editor) SelectElements(ids []string) bool {
	return e.update(func(s *State) bool {
		slide := s.CurrentSlide()
		if slide == nil {
			return false
		}
		existing := slide.ElementIDs()
		var sel []string
		seen := make(map[string]bool)
		for _, id := range ids {
			if existing[id] && !seen[id] {
				sel = append(sel, id)
				seen[id] = true
			}
		}
		s.SelectedElementIDs = sel
		return true
	})
}

func (e *Editor) ClearSelection() bool {
	return e.update(func(s *State) bool {
		if len(s.SelectedElementIDs) == 0 {
			return false
		}
		s.SelectedElementIDs = nil
		return true
	})
}

func without(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

// SelectedElements returns copies of the selected elements in paint order.
func (s *State) SelectedElements() []domain.Element {
	slide := s.CurrentSlide()
	if slide == nil {
		return nil
	}
	order := make(map[string]int)
	i := 0
	domain.Walk(slide.Linearize(), func(c *domain.Element) bool {
		order[c.ID] = i
		i++
		return true
	})
	var out []domain.Element
	for _, id := range s.SelectedElementIDs {
		if el, ok := slide.Element(id); ok {
			out = append(out, el)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return order[out[a].ID] < order[out[b].ID] })
	return out
}
