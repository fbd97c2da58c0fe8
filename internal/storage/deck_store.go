package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"deckeditor/internal/domain"
)

// DeckSummary is one row of ListDecks.
type DeckSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SQLStore keeps each deck as a JSON document row in the decks table.
type SQLStore struct {
	db  *DB
	now func() time.Time
}

func NewSQLStore(db *DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// LoadDeck reads the deck with id. The row's updated_at wins over the one in the document.
func (s *SQLStore) LoadDeck(ctx context.Context, id string) (*domain.Deck, error) {
	var doc string
	var updated time.Time
	err := s.db.Conn().QueryRowContext(ctx,
		s.db.rebind(`SELECT document, updated_at FROM decks WHERE id = ?`), id,
	).Scan(&doc, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDeckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load deck: %w", err)
	}

	var deck domain.Deck
	if err := json.Unmarshal([]byte(doc), &deck); err != nil {
		return nil, fmt.Errorf("decode deck %s: %w", id, err)
	}
	deck.Meta.UpdatedAt = updated.UTC()
	return &deck, nil
}

// SaveDeck upserts deck and bumps its version. The write runs in a transaction
// bound to ctx, so cancelling ctx rolls it back.
func (s *SQLStore) SaveDeck(ctx context.Context, deck *domain.Deck) (*domain.SaveAck, error) {
	now := s.now().UTC()
	c := *deck
	c.Meta.UpdatedAt = now
	if c.Meta.CreatedAt.IsZero() {
		c.Meta.CreatedAt = now
	}
	doc, err := json.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("encode deck: %w", err)
	}

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.db.rebind(s.upsertQuery()),
		c.Meta.ID, c.Meta.Title, c.Meta.Slug, c.Meta.OwnerID, string(doc), c.Meta.CreatedAt, now,
	); err != nil {
		return nil, fmt.Errorf("upsert deck: %w", err)
	}

	var version int64
	if err := tx.QueryRowContext(ctx,
		s.db.rebind(`SELECT version FROM decks WHERE id = ?`), c.Meta.ID,
	).Scan(&version); err != nil {
		return nil, fmt.Errorf("read deck version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save: %w", err)
	}

	return &domain.SaveAck{DeckID: c.Meta.ID, Version: version, UpdatedAt: now}, nil
}

func (s *SQLStore) upsertQuery() string {
	const insert = `INSERT INTO decks (id, title, slug, owner_id, document, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)`
	if s.db.Driver() == DriverMySQL {
		return insert + ` ON DUPLICATE KEY UPDATE
			title = VALUES(title), slug = VALUES(slug), owner_id = VALUES(owner_id),
			document = VALUES(document), version = version + 1, updated_at = VALUES(updated_at)`
	}
	return insert + ` ON CONFLICT(id) DO UPDATE SET
		title = excluded.title, slug = excluded.slug, owner_id = excluded.owner_id,
		document = excluded.document, version = decks.version + 1, updated_at = excluded.updated_at`
}

// ListDecks returns every stored deck, most recently updated first.
func (s *SQLStore) ListDecks(ctx context.Context) ([]DeckSummary, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, title, slug, version, updated_at FROM decks ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var out []DeckSummary
	for rows.Next() {
		var d DeckSummary
		if err := rows.Scan(&d.ID, &d.Title, &d.Slug, &d.Version, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		d.UpdatedAt = d.UpdatedAt.UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDeck removes a deck and its journal.
func (s *SQLStore) DeleteDeck(ctx context.Context, id string) error {
	if _, err := s.db.Conn().ExecContext(ctx, s.db.rebind(`DELETE FROM deck_commands WHERE deck_id = ?`), id); err != nil {
		return fmt.Errorf("delete deck journal: %w", err)
	}
	res, err := s.db.Conn().ExecContext(ctx, s.db.rebind(`DELETE FROM decks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrDeckNotFound
	}
	return nil
}
