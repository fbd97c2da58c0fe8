// Package editor owns the in-memory deck document and every mutation applied to it.
//
// An Editor is created explicitly and passed to whoever needs it. All mutations go
// through its methods; each one produces a new immutable State snapshot, records an
// undoable command when the document changes, and then notifies subscribers.
// Operations whose preconditions fail are silent no-ops.
package editor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deckeditor/internal/canvas"
	"deckeditor/internal/domain"
	"deckeditor/internal/history"
)

// Listener receives every new snapshot. Listeners run outside the editor lock but
// one at a time and in version order; they may call read methods such as State
// but must hand mutations off to another goroutine.
type Listener func(s *State)

// CommandHook is called after a command has been recorded.
type CommandHook func(deckID string, cmd history.Command)

type listenerEntry struct {
	id uint64
	fn Listener
}

type Editor struct {
	mu    sync.Mutex
	state *State

	notifyMu  sync.Mutex
	delivered uint64

	listeners []listenerEntry
	nextID    uint64

	store        domain.DeckStore
	logger       *zap.Logger
	historyLimit int
	hook         CommandHook
	now          func() time.Time
}

type Option func(*Editor)

// WithStore sets the store LoadDeck reads from.
func WithStore(s domain.DeckStore) Option { return func(e *Editor) { e.store = s } }

func WithLogger(l *zap.Logger) Option { return func(e *Editor) { e.logger = l } }

// WithHistoryLimit bounds the undo stack; n <= 0 keeps everything.
func WithHistoryLimit(n int) Option { return func(e *Editor) { e.historyLimit = n } }

func WithCommandHook(h CommandHook) Option { return func(e *Editor) { e.hook = h } }

func WithClock(now func() time.Time) Option { return func(e *Editor) { e.now = now } }

func New(opts ...Option) *Editor {
	e := &Editor{
		logger:       zap.NewNop(),
		historyLimit: history.DefaultLimit,
		now:          time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	e.state = e.initialState()
	return e
}

func (e *Editor) initialState() *State {
	return &State{
		Zoom:    1,
		History: history.New(e.historyLimit),
	}
}

// State returns the current snapshot. Callers must not modify it.
func (e *Editor) State() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Subscribe registers fn for every future snapshot and returns its unsubscribe func.
func (e *Editor) Subscribe(fn Listener) (unsubscribe func()) {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, listenerEntry{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, l := range e.listeners {
				if l.id == id {
					e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// update runs fn against a shallow copy of the current state. fn returns false to
// leave the state untouched.
func (e *Editor) update(fn func(s *State) bool) bool {
	e.mu.Lock()
	next := *e.state
	next.recorded = nil
	if !fn(&next) {
		e.mu.Unlock()
		return false
	}
	recorded := next.recorded
	next.recorded = nil
	next.Version = e.state.Version + 1
	e.state = &next
	listeners := append([]listenerEntry(nil), e.listeners...)
	hook := e.hook
	e.mu.Unlock()

	if recorded != nil && hook != nil && next.Deck != nil {
		hook(next.Deck.Meta.ID, *recorded)
	}
	e.notify(&next, listeners)
	return true
}

// edit is update for document changes: the deck is deep-copied before fn runs.
func (e *Editor) edit(fn func(s *State) bool) bool {
	return e.update(func(s *State) bool {
		if s.Deck == nil {
			return false
		}
		s.Deck = s.Deck.Clone()
		if !fn(s) {
			return false
		}
		if s.recorded != nil {
			s.Deck.Meta.UpdatedAt = e.now()
		}
		return true
	})
}

// editSlide is edit scoped to the current slide.
func (e *Editor) editSlide(fn func(s *State, slide *domain.Slide) bool) bool {
	return e.edit(func(s *State) bool {
		slide := s.CurrentSlide()
		if slide == nil {
			return false
		}
		return fn(s, slide)
	})
}

func (e *Editor) notify(s *State, listeners []listenerEntry) {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	if s.Version <= e.delivered {
		return
	}
	e.delivered = s.Version
	for _, l := range listeners {
		l.fn(s)
	}
}

func (e *Editor) newCommand(t history.CommandType, slideID string, targets ...string) history.Command {
	c := history.NewCommand(t, slideID, targets...)
	c.Timestamp = e.now()
	return c
}

// ── Document lifecycle ──────────────────────────────────────

// LoadDeck fetches a deck from the store and makes it the edited document. A deck
// the store reports as missing becomes a fresh shell with one blank slide; any
// other failure leaves no document and sets the error field.
func (e *Editor) LoadDeck(ctx context.Context, id string) error {
	if e.store == nil {
		return errors.New("load deck: no store configured")
	}
	e.update(func(s *State) bool {
		s.IsLoading = true
		s.Error = ""
		return true
	})

	deck, err := e.store.LoadDeck(ctx, id)
	if errors.Is(err, domain.ErrDeckNotFound) {
		e.logger.Info("deck not found, starting empty", zap.String("deck", id))
		deck, err = NewDeckShell(id, "", "", e.now()), nil
	}
	if err == nil {
		err = domain.Validate(deck)
	}
	if err != nil {
		e.logger.Warn("load deck failed", zap.String("deck", id), zap.Error(err))
		e.update(func(s *State) bool {
			*s = *e.initialState()
			s.Error = err.Error()
			return true
		})
		return fmt.Errorf("load deck %s: %w", id, err)
	}
	e.SetDeck(deck)
	e.logger.Debug("deck loaded", zap.String("deck", id), zap.Int("slides", len(deck.Slides)))
	return nil
}

// SetDeck installs deck as the edited document and resets history, selection and view.
func (e *Editor) SetDeck(deck *domain.Deck) {
	d := deck.Clone()
	if d != nil {
		if len(d.Slides) == 0 {
			d.Slides = []domain.Slide{blankSlide()}
		}
		for i := range d.Slides {
			d.Slides[i].RecalculateGroups()
		}
	}
	e.update(func(s *State) bool {
		*s = *e.initialState()
		s.Deck = d
		return true
	})
}

// NewDeck creates and installs an empty deck, returning its id.
func (e *Editor) NewDeck(title, ownerID string) string {
	deck := NewDeckShell(uuid.New().String(), title, ownerID, e.now())
	e.SetDeck(deck)
	return deck.Meta.ID
}

// Reset drops the document and all editor state.
func (e *Editor) Reset() {
	e.update(func(s *State) bool {
		*s = *e.initialState()
		return true
	})
}

// NewDeckShell returns a valid deck with default settings and one blank slide.
func NewDeckShell(id, title, ownerID string, now time.Time) *domain.Deck {
	if title == "" {
		title = "Untitled deck"
	}
	return &domain.Deck{
		Meta: domain.DeckMeta{
			ID:        id,
			Title:     title,
			Slug:      Slugify(title),
			OwnerID:   ownerID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Settings: domain.DeckSettings{
			Width:  domain.DefaultCanvasWidth,
			Height: domain.DefaultCanvasHeight,
		},
		Slides: []domain.Slide{blankSlide()},
	}
}

var slugJunk = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(title string) string {
	return strings.Trim(slugJunk.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

func blankSlide() domain.Slide {
	return domain.Slide{ID: uuid.New().String(), Elements: []domain.Element{}}
}

// ── View and interaction state ──────────────────────────────

const (
	MinZoom = 0.1
	MaxZoom = 8.0
)

// SetZoom clamps z into [MinZoom, MaxZoom].
func (e *Editor) SetZoom(z float64) bool {
	z = min(max(z, MinZoom), MaxZoom)
	return e.update(func(s *State) bool {
		if s.Zoom == z {
			return false
		}
		s.Zoom = z
		return true
	})
}

func (e *Editor) SetPan(p canvas.Point) bool {
	return e.update(func(s *State) bool {
		if s.Pan == p {
			return false
		}
		s.Pan = p
		return true
	})
}

// SetInteraction records which element is being dragged or resized. Clearing both
// also clears the snap guides.
func (e *Editor) SetInteraction(in Interaction) bool {
	return e.update(func(s *State) bool {
		if s.Interaction == in {
			return false
		}
		s.Interaction = in
		if !in.Active() {
			s.SnapGuides = nil
		}
		return true
	})
}

func (e *Editor) SetSnapGuides(guides []Guide) bool {
	return e.update(func(s *State) bool {
		if len(guides) == 0 && len(s.SnapGuides) == 0 {
			return false
		}
		s.SnapGuides = append([]Guide(nil), guides...)
		return true
	})
}

// ── Save bookkeeping ────────────────────────────────────────

func (e *Editor) SetSaving(saving bool) bool {
	return e.update(func(s *State) bool {
		if s.IsSaving == saving {
			return false
		}
		s.IsSaving = saving
		return true
	})
}

// SetSaveError surfaces a failed save. The document is left as is.
func (e *Editor) SetSaveError(err error) {
	e.update(func(s *State) bool {
		s.IsSaving = false
		s.Error = err.Error()
		return true
	})
}

// MarkSaved records a successful save of the current document. Only the
// volatile timestamp of the deck is touched. A non-nil saved is called under the
// editor lock with the live state and must report whether it still holds the
// saved content; it must not call back into the editor.
func (e *Editor) MarkSaved(ack domain.SaveAck, saved func(s *State) bool) bool {
	return e.update(func(s *State) bool {
		if s.Deck == nil || s.Deck.Meta.ID != ack.DeckID {
			return false
		}
		if saved != nil && !saved(s) {
			return false
		}
		if !ack.UpdatedAt.IsZero() {
			d := *s.Deck
			d.Meta.UpdatedAt = ack.UpdatedAt
			s.Deck = &d
		}
		s.IsSaving = false
		s.Error = ""
		s.LastSavedAt = e.now()
		return true
	})
}
