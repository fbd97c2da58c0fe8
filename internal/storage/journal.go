package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"deckeditor/internal/history"
)

// DefaultJournalLimit is how many commands are kept per deck.
const DefaultJournalLimit = 500

// JournalEntry is one recorded command.
type JournalEntry struct {
	Seq       int64           `json:"seq"`
	DeckID    string          `json:"deckId"`
	Command   history.Command `json:"command"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Journal is an append-only log of the commands applied to each deck.
type Journal struct {
	db    *DB
	limit int
	now   func() time.Time
}

func NewJournal(db *DB, limit int) *Journal {
	if limit <= 0 {
		limit = DefaultJournalLimit
	}
	return &Journal{db: db, limit: limit, now: time.Now}
}

// Append records cmd for deckID and prunes the oldest entries beyond the limit.
func (j *Journal) Append(ctx context.Context, deckID string, cmd history.Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	_, err = j.db.Conn().ExecContext(ctx, j.db.rebind(
		`INSERT INTO deck_commands (deck_id, command_id, type, slide_id, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		deckID, cmd.ID, string(cmd.Type), cmd.SlideID, string(payload), j.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert command: %w", err)
	}
	return j.prune(ctx, deckID)
}

// prune deletes everything older than the newest limit entries.
func (j *Journal) prune(ctx context.Context, deckID string) error {
	var cutoff int64
	err := j.db.Conn().QueryRowContext(ctx, j.db.rebind(
		`SELECT seq FROM deck_commands WHERE deck_id = ? ORDER BY seq DESC LIMIT 1 OFFSET ?`),
		deckID, j.limit,
	).Scan(&cutoff)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find journal cutoff: %w", err)
	}
	if _, err := j.db.Conn().ExecContext(ctx, j.db.rebind(
		`DELETE FROM deck_commands WHERE deck_id = ? AND seq <= ?`), deckID, cutoff,
	); err != nil {
		return fmt.Errorf("prune journal: %w", err)
	}
	return nil
}

// List returns up to limit of the newest entries for deckID, oldest first.
// A limit of zero returns all of them.
func (j *Journal) List(ctx context.Context, deckID string, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = j.limit
	}
	rows, err := j.db.Conn().QueryContext(ctx, j.db.rebind(
		`SELECT seq, deck_id, payload, created_at FROM deck_commands
		 WHERE deck_id = ? ORDER BY seq DESC LIMIT ?`), deckID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var payload string
		if err := rows.Scan(&e.Seq, &e.DeckID, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &e.Command); err != nil {
			return nil, fmt.Errorf("decode command %d: %w", e.Seq, err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

// Clear removes every entry for deckID.
func (j *Journal) Clear(ctx context.Context, deckID string) error {
	_, err := j.db.Conn().ExecContext(ctx, j.db.rebind(`DELETE FROM deck_commands WHERE deck_id = ?`), deckID)
	if err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}
	return nil
}
