package domain

import (
	"context"
	"errors"
	"time"
)

// Default logical canvas size shared by every slide of a deck.
const (
	DefaultCanvasWidth  = 1280.0
	DefaultCanvasHeight = 720.0
)

var (
	// ErrDeckNotFound is returned by a DeckStore when the id is unknown.
	// It is distinct from transport failures so callers can decide to create a shell.
	ErrDeckNotFound = errors.New("deck not found")
	// ErrInvalidDeck wraps validation failures of a loaded document.
	ErrInvalidDeck = errors.New("invalid deck")
)

// Deck is the full presentation document.
type Deck struct {
	Meta     DeckMeta     `json:"meta" validate:"required"`
	Settings DeckSettings `json:"settings"`
	Slides   []Slide      `json:"slides" validate:"dive"`
}

// DeckMeta identifies the deck. UpdatedAt is volatile and never part of the fingerprint.
type DeckMeta struct {
	ID        string    `json:"id" validate:"required"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type DeckSettings struct {
	Width      float64 `json:"width" validate:"gte=0"`
	Height     float64 `json:"height" validate:"gte=0"`
	Theme      string  `json:"theme,omitempty"`
	GridSize   float64 `json:"gridSize,omitempty" validate:"gte=0"`
	SnapToGrid bool    `json:"snapToGrid,omitempty"`
	Transition string  `json:"transition,omitempty"`
}

// CanvasSize returns the logical canvas size, falling back to the defaults.
func (s DeckSettings) CanvasSize() (float64, float64) {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = DefaultCanvasWidth
	}
	if h <= 0 {
		h = DefaultCanvasHeight
	}
	return w, h
}

// Slide holds slide-level elements (painted first) and ordered layers above them.
type Slide struct {
	ID            string    `json:"id" validate:"required"`
	Elements      []Element `json:"elements" validate:"dive"`
	Layers        []Layer   `json:"layers,omitempty" validate:"dive"`
	Timeline      *Timeline `json:"timeline,omitempty"`
	MasterSlideID string    `json:"masterSlideId,omitempty"`
	Background    string    `json:"background,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

type Layer struct {
	ID       string    `json:"id" validate:"required"`
	Name     string    `json:"name,omitempty"`
	Order    int       `json:"order"`
	Visible  bool      `json:"visible"`
	Locked   bool      `json:"locked,omitempty"`
	Elements []Element `json:"elements" validate:"dive"`
}

type Timeline struct {
	Steps []TimelineStep `json:"steps"`
}

type TimelineStep struct {
	ID         string   `json:"id"`
	ElementIDs []string `json:"elementIds"`
	Effect     string   `json:"effect,omitempty"`
	DurationMS int      `json:"durationMs,omitempty"`
}

// SaveAck is what a store reports back after a successful upsert.
type SaveAck struct {
	DeckID    string    `json:"deckId"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeckStore is the remote document store. SaveDeck must honour ctx cancellation.
type DeckStore interface {
	LoadDeck(ctx context.Context, id string) (*Deck, error)
	SaveDeck(ctx context.Context, deck *Deck) (*SaveAck, error)
}

// Clone returns a deep copy of the deck.
func (d *Deck) Clone() *Deck {
	if d == nil {
		return nil
	}
	c := *d
	if d.Slides != nil {
		c.Slides = make([]Slide, len(d.Slides))
		for i := range d.Slides {
			c.Slides[i] = d.Slides[i].Clone()
		}
	}
	return &c
}

// SlideIndex returns the index of the slide with the given id, or -1.
func (d *Deck) SlideIndex(id string) int {
	for i := range d.Slides {
		if d.Slides[i].ID == id {
			return i
		}
	}
	return -1
}

func (s Slide) Clone() Slide {
	c := s
	c.Elements = CloneElements(s.Elements)
	if s.Layers != nil {
		c.Layers = make([]Layer, len(s.Layers))
		for i, l := range s.Layers {
			l.Elements = CloneElements(l.Elements)
			c.Layers[i] = l
		}
	}
	if s.Timeline != nil {
		tl := Timeline{Steps: make([]TimelineStep, len(s.Timeline.Steps))}
		for i, st := range s.Timeline.Steps {
			st.ElementIDs = append([]string(nil), st.ElementIDs...)
			tl.Steps[i] = st
		}
		c.Timeline = &tl
	}
	return c
}
