// Package history records applied editor commands for undo and redo.
package history

import (
	"time"

	"github.com/google/uuid"

	"deckeditor/internal/domain"
)

type CommandType string

const (
	AddSlide        CommandType = "addSlide"
	DeleteSlide     CommandType = "deleteSlide"
	DuplicateSlide  CommandType = "duplicateSlide"
	MoveSlide       CommandType = "moveSlide"
	UpdateSlide     CommandType = "updateSlide"
	UpdateSettings  CommandType = "updateSettings"
	AddElement      CommandType = "addElement"
	UpdateElement   CommandType = "updateElement"
	BatchUpdate     CommandType = "batchUpdateElements"
	DeleteElements  CommandType = "deleteElements"
	ReorderElement  CommandType = "reorderElement"
	GroupElements   CommandType = "groupElements"
	UngroupElements CommandType = "ungroupElements"
	Paste           CommandType = "paste"
	Cut             CommandType = "cut"
	Duplicate       CommandType = "duplicateElement"
	ToggleLock      CommandType = "toggleElementLock"
	MoveElements    CommandType = "moveElements"
	ResizeElement   CommandType = "resizeElement"
)

// Command is one applied mutation. It carries enough state to be reversed and
// replayed: element-level commands keep before/after element copies, structural
// commands keep before/after copies of the affected slide.
type Command struct {
	ID        string            `json:"id"`
	Type      CommandType       `json:"type"`
	SlideID   string            `json:"slideId,omitempty"`
	TargetIDs []string          `json:"targetIds,omitempty"`
	Params    map[string]any    `json:"params,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`

	SlideIndex     int                  `json:"slideIndex"`
	ToIndex        int                  `json:"toIndex,omitempty"`
	BeforeSlide    *domain.Slide        `json:"beforeSlide,omitempty"`
	AfterSlide     *domain.Slide        `json:"afterSlide,omitempty"`
	BeforeElements []domain.Element     `json:"beforeElements,omitempty"`
	AfterElements  []domain.Element     `json:"afterElements,omitempty"`
	BeforeSettings *domain.DeckSettings `json:"beforeSettings,omitempty"`
	AfterSettings  *domain.DeckSettings `json:"afterSettings,omitempty"`
}

// NewCommand stamps a command with a fresh id and the current time.
func NewCommand(t CommandType, slideID string, targets ...string) Command {
	return Command{
		ID:        uuid.New().String(),
		Type:      t,
		SlideID:   slideID,
		TargetIDs: targets,
		Timestamp: time.Now(),
	}
}

// ElementLevel reports whether the command is reversed by swapping element bodies
// rather than whole slides.
func (c Command) ElementLevel() bool {
	return c.BeforeSlide == nil && c.AfterSlide == nil && c.BeforeSettings == nil && c.AfterSettings == nil
}
