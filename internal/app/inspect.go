package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"deckeditor/internal/persistence"
	"deckeditor/internal/storage"
)

// DeckReport summarizes a stored deck without opening it in the editor.
type DeckReport struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slides      int       `json:"slides"`
	Elements    int       `json:"elements"`
	Fingerprint string    `json:"fingerprint"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Inspect loads id straight from the store.
func (a *App) Inspect(ctx context.Context, id string) (*DeckReport, error) {
	deck, err := a.store.LoadDeck(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load deck %s: %w", id, err)
	}
	fp, err := persistence.Fingerprint(deck)
	if err != nil {
		return nil, err
	}
	r := &DeckReport{
		ID:          deck.Meta.ID,
		Title:       deck.Meta.Title,
		Slides:      len(deck.Slides),
		Fingerprint: strconv.FormatUint(fp, 16),
		UpdatedAt:   deck.Meta.UpdatedAt,
	}
	for i := range deck.Slides {
		r.Elements += len(deck.Slides[i].Linearize())
	}
	return r, nil
}

// History returns the newest limit journal entries of id, oldest first.
func (a *App) History(ctx context.Context, id string, limit int) ([]storage.JournalEntry, error) {
	if a.journal == nil {
		return nil, errors.New("command journal is disabled")
	}
	return a.journal.journal.List(ctx, id, limit)
}

// ListDecks returns the decks in the store.
func (a *App) ListDecks(ctx context.Context) ([]storage.DeckSummary, error) {
	switch {
	case a.mongo != nil:
		return a.mongo.ListDecks(ctx)
	case a.files != nil:
		ids, err := a.files.ListDecks()
		if err != nil {
			return nil, err
		}
		out := make([]storage.DeckSummary, 0, len(ids))
		for _, id := range ids {
			out = append(out, storage.DeckSummary{ID: id})
		}
		return out, nil
	}
	sql, ok := a.store.(*storage.SQLStore)
	if !ok {
		return nil, errors.New("store cannot list decks")
	}
	return sql.ListDecks(ctx)
}

// ClearHistory drops the journal of id.
func (a *App) ClearHistory(ctx context.Context, id string) error {
	if a.journal == nil {
		return errors.New("command journal is disabled")
	}
	return a.journal.journal.Clear(ctx, id)
}
