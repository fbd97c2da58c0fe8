package editor

import (
	"time"

	"deckeditor/internal/canvas"
	"deckeditor/internal/domain"
	"deckeditor/internal/history"
)

// Interaction is the ephemeral gesture state. A non-empty id means a gesture is live
// and persistence must hold off.
type Interaction struct {
	DraggingElementID string `json:"draggingElementId,omitempty"`
	ResizingElementID string `json:"resizingElementId,omitempty"`
}

func (i Interaction) Active() bool {
	return i.DraggingElementID != "" || i.ResizingElementID != ""
}

type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// Guide is an alignment line the dragged element snapped to.
type Guide struct {
	Axis     Axis    `json:"axis"`
	Position float64 `json:"position"`
}

// State is one immutable snapshot of the editor. Every mutation produces a new
// State; listeners must treat the value as read-only.
type State struct {
	Version uint64 `json:"version"`

	Deck               *domain.Deck     `json:"deck"`
	CurrentSlideIndex  int              `json:"currentSlideIndex"`
	SelectedElementIDs []string         `json:"selectedElementIds"`
	OpenedGroupID      string           `json:"openedGroupId,omitempty"`
	Clipboard          []domain.Element `json:"clipboard,omitempty"`
	Zoom               float64          `json:"zoom"`
	Pan                canvas.Point     `json:"pan"`
	History            history.Log      `json:"-"`
	Interaction        Interaction      `json:"interaction"`
	SnapGuides         []Guide          `json:"snapGuides,omitempty"`

	IsLoading   bool      `json:"isLoading"`
	IsSaving    bool      `json:"isSaving"`
	Error       string    `json:"error,omitempty"`
	LastSavedAt time.Time `json:"lastSavedAt"`

	recorded *history.Command
}

// IsDragging reports whether a drag or resize gesture is in progress.
func (s *State) IsDragging() bool { return s.Interaction.Active() }

// CurrentSlide returns the slide being edited, or nil.
func (s *State) CurrentSlide() *domain.Slide {
	if s.Deck == nil || s.CurrentSlideIndex < 0 || s.CurrentSlideIndex >= len(s.Deck.Slides) {
		return nil
	}
	return &s.Deck.Slides[s.CurrentSlideIndex]
}

// IsSelected reports whether id is part of the selection.
func (s *State) IsSelected(id string) bool {
	for _, sel := range s.SelectedElementIDs {
		if sel == id {
			return true
		}
	}
	return false
}

func (s *State) record(cmd history.Command) {
	s.History = s.History.Push(cmd)
	s.recorded = &cmd
}

// sanitize drops selection entries and the opened group when they no longer exist.
func (s *State) sanitize() {
	if s.Deck != nil {
		if n := len(s.Deck.Slides); s.CurrentSlideIndex >= n {
			s.CurrentSlideIndex = n - 1
		}
		if s.CurrentSlideIndex < 0 && len(s.Deck.Slides) > 0 {
			s.CurrentSlideIndex = 0
		}
	}
	slide := s.CurrentSlide()
	if slide == nil {
		s.SelectedElementIDs = nil
		s.OpenedGroupID = ""
		return
	}
	ids := slide.ElementIDs()
	kept := make([]string, 0, len(s.SelectedElementIDs))
	for _, id := range s.SelectedElementIDs {
		if ids[id] {
			kept = append(kept, id)
		}
	}
	s.SelectedElementIDs = kept
	if s.OpenedGroupID != "" {
		if g, ok := slide.Element(s.OpenedGroupID); !ok || !g.IsGroup() {
			s.OpenedGroupID = ""
		}
	}
}
