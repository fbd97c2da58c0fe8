package editor

import (
	"deckeditor/internal/domain"
	"deckeditor/internal/history"
)

// ReorderElement moves a top-level element to newIndex in the slide's paint order
// (0 is the bottom). Layer elements are folded into the slide-level list first, so
// layer membership is lost. Group children cannot be reordered.
func (e *Editor) ReorderElement(id string, newIndex int) bool {
	return e.editSlide(func(s *State, slide *domain.Slide) bool {
		order := slide.Linearize()
		from := indexOf(order, id)
		if from < 0 {
			return false
		}
		to := min(max(newIndex, 0), len(order)-1)
		if to == from {
			return false
		}
		before := slide.Clone()
		el := order[from]
		order = append(order[:from], order[from+1:]...)
		order = append(order[:to], append([]domain.Element{el}, order[to:]...)...)
		slide.Flatten(order)
		cmd := e.slideCommand(history.ReorderElement, s, before, id)
		cmd.Params = map[string]any{"from": from, "to": to}
		s.record(cmd)
		return true
	})
}

func (e *Editor) BringToFront(id string) bool {
	return e.ReorderElement(id, e.paintLen()-1)
}

func (e *Editor) SendToBack(id string) bool {
	return e.ReorderElement(id, 0)
}

func (e *Editor) BringForward(id string) bool {
	i := e.paintIndex(id)
	return i >= 0 && e.ReorderElement(id, i+1)
}

func (e *Editor) SendBackward(id string) bool {
	i := e.paintIndex(id)
	return i > 0 && e.ReorderElement(id, i-1)
}

func (e *Editor) paintIndex(id string) int {
	slide := e.State().CurrentSlide()
	if slide == nil {
		return -1
	}
	return indexOf(slide.Linearize(), id)
}

func (e *Editor) paintLen() int {
	slide := e.State().CurrentSlide()
	if slide == nil {
		return 0
	}
	return len(slide.Linearize())
}

func indexOf(els []domain.Element, id string) int {
	for i := range els {
		if els[i].ID == id {
			return i
		}
	}
	return -1
}
