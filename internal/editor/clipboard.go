package editor

import (
	"deckeditor/internal/domain"
	"deckeditor/internal/history"
)

// Copy puts copies of the selected elements on the clipboard. The document is not changed.
func (e *Editor) Copy() bool {
	return e.update(func(s *State) bool {
		els := s.SelectedElements()
		if len(els) == 0 {
			return false
		}
		s.Clipboard = els
		return true
	})
}

// Cut copies the selection to the clipboard and deletes it as one command.
func (e *Editor) Cut() bool {
	return e.editSlide(func(s *State, slide *domain.Slide) bool {
		els := s.SelectedElements()
		if len(els) == 0 {
			return false
		}
		before := slide.Clone()
		ids := make([]string, len(els))
		for i, el := range els {
			ids[i] = el.ID
		}
		removeAll(slide, ids)
		slide.PruneTimeline()
		s.Clipboard = els
		s.record(e.slideCommand(history.Cut, s, before, ids...))
		s.sanitize()
		return true
	})
}

// Paste appends the clipboard to the current slide with fresh ids, offset from
// the copied position, and selects the pasted elements. Repeated pastes cascade.
func (e *Editor) Paste() []string {
	var pasted []string
	e.editSlide(func(s *State, slide *domain.Slide) bool {
		if len(s.Clipboard) == 0 {
			return false
		}
		before := slide.Clone()
		next := make([]domain.Element, len(s.Clipboard))
		for i, el := range s.Clipboard {
			dup := offsetCopy(el, DuplicateOffset)
			slide.Elements = append(slide.Elements, dup)
			pasted = append(pasted, dup.ID)
			next[i] = dup.Clone()
		}
		s.Clipboard = next
		s.record(e.slideCommand(history.Paste, s, before, pasted...))
		s.SelectedElementIDs = append([]string(nil), pasted...)
		s.OpenedGroupID = ""
		return true
	})
	return pasted
}
