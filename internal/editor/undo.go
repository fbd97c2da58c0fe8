package editor

import (
	"go.uber.org/zap"

	"deckeditor/internal/domain"
	"deckeditor/internal/history"
)

// Undo reverses the newest command. A command whose slide no longer exists is
// dropped from the log without touching the document.
func (e *Editor) Undo() bool {
	return e.edit(func(s *State) bool {
		cmd, log, ok := s.History.Undo()
		if !ok {
			return false
		}
		s.History = log
		if !e.apply(s, cmd, true) {
			e.logger.Warn("undo target missing", zap.String("command", string(cmd.Type)), zap.String("slide", cmd.SlideID))
		}
		s.Deck.Meta.UpdatedAt = e.now()
		s.sanitize()
		return true
	})
}

// Redo re-applies the newest undone command.
func (e *Editor) Redo() bool {
	return e.edit(func(s *State) bool {
		cmd, log, ok := s.History.Redo()
		if !ok {
			return false
		}
		s.History = log
		if !e.apply(s, cmd, false) {
			e.logger.Warn("redo target missing", zap.String("command", string(cmd.Type)), zap.String("slide", cmd.SlideID))
		}
		s.Deck.Meta.UpdatedAt = e.now()
		s.sanitize()
		return true
	})
}

// apply moves the document to the before (reverse) or after state of cmd.
func (e *Editor) apply(s *State, cmd history.Command, reverse bool) bool {
	d := s.Deck
	switch cmd.Type {
	case history.AddSlide, history.DuplicateSlide:
		if reverse {
			return removeSlide(d, cmd.AfterSlide.ID)
		}
		s.CurrentSlideIndex = insertSlide(d, cmd.SlideIndex, cmd.AfterSlide.Clone())
		return true

	case history.DeleteSlide:
		if reverse {
			s.CurrentSlideIndex = insertSlide(d, cmd.SlideIndex, cmd.BeforeSlide.Clone())
			return true
		}
		return removeSlide(d, cmd.BeforeSlide.ID)

	case history.MoveSlide:
		from, to := cmd.SlideIndex, cmd.ToIndex
		if reverse {
			from, to = to, from
		}
		if from < 0 || from >= len(d.Slides) || to < 0 || to >= len(d.Slides) {
			return false
		}
		moveSlide(d, from, to)
		s.CurrentSlideIndex = to
		return true

	case history.UpdateSettings:
		src := cmd.AfterSettings
		if reverse {
			src = cmd.BeforeSettings
		}
		if src == nil {
			return false
		}
		d.Settings = *src
		return true
	}

	idx := d.SlideIndex(cmd.SlideID)
	if idx < 0 {
		return false
	}
	if idx != s.CurrentSlideIndex {
		s.CurrentSlideIndex = idx
		s.SelectedElementIDs = nil
		s.OpenedGroupID = ""
	}

	if !cmd.ElementLevel() {
		src := cmd.AfterSlide
		if reverse {
			src = cmd.BeforeSlide
		}
		if src == nil {
			return false
		}
		d.Slides[idx] = src.Clone()
		return true
	}

	els := cmd.AfterElements
	if reverse {
		els = cmd.BeforeElements
	}
	slide := &d.Slides[idx]
	applied := true
	for _, el := range els {
		applied = slide.Replace(el.Clone()) && applied
	}
	return applied
}

// CanUndo and CanRedo report whether the log has something to replay.
func (e *Editor) CanUndo() bool { return e.State().History.CanUndo() }
func (e *Editor) CanRedo() bool { return e.State().History.CanRedo() }

// Slide returns the slide with the given id, or nil.
func (s *State) Slide(id string) *domain.Slide {
	if s.Deck == nil {
		return nil
	}
	if i := s.Deck.SlideIndex(id); i >= 0 {
		return &s.Deck.Slides[i]
	}
	return nil
}
