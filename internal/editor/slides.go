package editor

import (
	"github.com/google/uuid"

	"deckeditor/internal/domain"
	"deckeditor/internal/history"
)

// AddSlide inserts a blank slide at index (appended when out of range), makes it
// current and returns its id.
func (e *Editor) AddSlide(index int) string {
	var id string
	e.edit(func(s *State) bool {
		slide := blankSlide()
		pos := insertSlide(s.Deck, index, slide)
		cmd := e.newCommand(history.AddSlide, slide.ID)
		cmd.SlideIndex = pos
		cmd.AfterSlide = ptr(slide.Clone())
		s.record(cmd)
		s.CurrentSlideIndex = pos
		s.SelectedElementIDs = nil
		s.OpenedGroupID = ""
		id = slide.ID
		return true
	})
	return id
}

// DeleteSlide removes the slide at index. The last remaining slide is kept.
func (e *Editor) DeleteSlide(index int) bool {
	return e.edit(func(s *State) bool {
		if index < 0 || index >= len(s.Deck.Slides) || len(s.Deck.Slides) == 1 {
			return false
		}
		removed := s.Deck.Slides[index]
		s.Deck.Slides = append(s.Deck.Slides[:index], s.Deck.Slides[index+1:]...)
		cmd := e.newCommand(history.DeleteSlide, removed.ID)
		cmd.SlideIndex = index
		cmd.BeforeSlide = ptr(removed.Clone())
		s.record(cmd)
		if s.CurrentSlideIndex > index {
			s.CurrentSlideIndex--
		}
		s.sanitize()
		return true
	})
}

// DuplicateSlide copies the slide at index with fresh ids, inserts the copy after
// it and returns the new slide id.
func (e *Editor) DuplicateSlide(index int) string {
	var id string
	e.edit(func(s *State) bool {
		if index < 0 || index >= len(s.Deck.Slides) {
			return false
		}
		dup := reidSlide(s.Deck.Slides[index])
		pos := insertSlide(s.Deck, index+1, dup)
		cmd := e.newCommand(history.DuplicateSlide, dup.ID)
		cmd.SlideIndex = pos
		cmd.AfterSlide = ptr(dup.Clone())
		cmd.Params = map[string]any{"sourceSlideId": s.Deck.Slides[index].ID}
		s.record(cmd)
		s.CurrentSlideIndex = pos
		s.SelectedElementIDs = nil
		s.OpenedGroupID = ""
		id = dup.ID
		return true
	})
	return id
}

// MoveSlide moves the slide at from so that it ends up at to.
func (e *Editor) MoveSlide(from, to int) bool {
	return e.edit(func(s *State) bool {
		n := len(s.Deck.Slides)
		if from < 0 || from >= n || to < 0 || to >= n || from == to {
			return false
		}
		currentID := s.Deck.Slides[s.CurrentSlideIndex].ID
		moveSlide(s.Deck, from, to)
		cmd := e.newCommand(history.MoveSlide, s.Deck.Slides[to].ID)
		cmd.SlideIndex = from
		cmd.ToIndex = to
		s.record(cmd)
		s.CurrentSlideIndex = s.Deck.SlideIndex(currentID)
		return true
	})
}

// SetCurrentSlide changes the edited slide. Selection and the opened group are cleared.
func (e *Editor) SetCurrentSlide(index int) bool {
	return e.update(func(s *State) bool {
		if s.Deck == nil || index < 0 || index >= len(s.Deck.Slides) || index == s.CurrentSlideIndex {
			return false
		}
		s.CurrentSlideIndex = index
		s.SelectedElementIDs = nil
		s.OpenedGroupID = ""
		return true
	})
}

// SlidePatch carries the slide-level fields to change; nil fields are kept.
type SlidePatch struct {
	Background    *string          `json:"background,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	MasterSlideID *string          `json:"masterSlideId,omitempty"`
	Timeline      *domain.Timeline `json:"timeline,omitempty"`
}

func (p SlidePatch) apply(s *domain.Slide) {
	if p.Background != nil {
		s.Background = *p.Background
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	if p.MasterSlideID != nil {
		s.MasterSlideID = *p.MasterSlideID
	}
	if p.Timeline != nil {
		tl := domain.Slide{Timeline: p.Timeline}.Clone().Timeline
		s.Timeline = tl
		s.PruneTimeline()
	}
}

func (e *Editor) UpdateSlide(slideID string, patch SlidePatch) bool {
	return e.edit(func(s *State) bool {
		idx := s.Deck.SlideIndex(slideID)
		if idx < 0 {
			return false
		}
		before := s.Deck.Slides[idx].Clone()
		patch.apply(&s.Deck.Slides[idx])
		cmd := e.newCommand(history.UpdateSlide, slideID)
		cmd.SlideIndex = idx
		cmd.BeforeSlide = &before
		cmd.AfterSlide = ptr(s.Deck.Slides[idx].Clone())
		s.record(cmd)
		return true
	})
}

// SettingsPatch carries the deck settings to change; nil fields are kept.
type SettingsPatch struct {
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
	Theme      *string  `json:"theme,omitempty"`
	GridSize   *float64 `json:"gridSize,omitempty"`
	SnapToGrid *bool    `json:"snapToGrid,omitempty"`
	Transition *string  `json:"transition,omitempty"`
}

func (e *Editor) UpdateSettings(patch SettingsPatch) bool {
	return e.edit(func(s *State) bool {
		before := s.Deck.Settings
		after := before
		if patch.Width != nil && *patch.Width > 0 && domain.Finite(*patch.Width) {
			after.Width = *patch.Width
		}
		if patch.Height != nil && *patch.Height > 0 && domain.Finite(*patch.Height) {
			after.Height = *patch.Height
		}
		if patch.Theme != nil {
			after.Theme = *patch.Theme
		}
		if patch.GridSize != nil && *patch.GridSize >= 0 && domain.Finite(*patch.GridSize) {
			after.GridSize = *patch.GridSize
		}
		if patch.SnapToGrid != nil {
			after.SnapToGrid = *patch.SnapToGrid
		}
		if patch.Transition != nil {
			after.Transition = *patch.Transition
		}
		if after == before {
			return false
		}
		s.Deck.Settings = after
		cmd := e.newCommand(history.UpdateSettings, "")
		cmd.BeforeSettings = &before
		cmd.AfterSettings = &after
		s.record(cmd)
		return true
	})
}

// ── helpers ─────────────────────────────────────────────────

func insertSlide(d *domain.Deck, index int, slide domain.Slide) int {
	if index < 0 || index > len(d.Slides) {
		index = len(d.Slides)
	}
	d.Slides = append(d.Slides, domain.Slide{})
	copy(d.Slides[index+1:], d.Slides[index:])
	d.Slides[index] = slide
	return index
}

func removeSlide(d *domain.Deck, id string) bool {
	idx := d.SlideIndex(id)
	if idx < 0 {
		return false
	}
	d.Slides = append(d.Slides[:idx], d.Slides[idx+1:]...)
	return true
}

func moveSlide(d *domain.Deck, from, to int) {
	slide := d.Slides[from]
	d.Slides = append(d.Slides[:from], d.Slides[from+1:]...)
	insertSlide(d, to, slide)
}

// reidSlide deep-copies a slide giving it, its layers, its elements and its
// animation steps fresh ids.
func reidSlide(src domain.Slide) domain.Slide {
	dup := src.Clone()
	dup.ID = uuid.New().String()
	mapping := make(map[string]string)
	for i := range dup.Elements {
		reid(&dup.Elements[i], mapping)
	}
	for li := range dup.Layers {
		dup.Layers[li].ID = uuid.New().String()
		for i := range dup.Layers[li].Elements {
			reid(&dup.Layers[li].Elements[i], mapping)
		}
	}
	if dup.Timeline != nil {
		for i := range dup.Timeline.Steps {
			st := &dup.Timeline.Steps[i]
			st.ID = uuid.New().String()
			for j, id := range st.ElementIDs {
				st.ElementIDs[j] = mapping[id]
			}
		}
		dup.PruneTimeline()
	}
	return dup
}

// reid assigns fresh ids to el and all of its descendants, recording old -> new.
func reid(el *domain.Element, mapping map[string]string) {
	next := uuid.New().String()
	if mapping != nil {
		mapping[el.ID] = next
	}
	el.ID = next
	for i := range el.Children {
		reid(&el.Children[i], mapping)
	}
}

func ptr[T any](v T) *T { return &v }
