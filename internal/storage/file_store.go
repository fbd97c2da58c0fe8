package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"deckeditor/internal/domain"
)

// fileDeck is the on-disk envelope of a deck.
type fileDeck struct {
	Version int64        `json:"version"`
	Deck    *domain.Deck `json:"deck"`
}

// FileStore keeps each deck as <dir>/<id>.json.
type FileStore struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	written map[string]uint64 // deck id -> hash of the bytes this store last wrote
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create deck directory: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now, written: make(map[string]uint64)}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

// validID refuses ids that would leave the store directory.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`)
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) read(id string) (*fileDeck, error) {
	b, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrDeckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	var f fileDeck
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode deck %s: %w", id, err)
	}
	if f.Deck == nil {
		return nil, fmt.Errorf("decode deck %s: %w", id, domain.ErrInvalidDeck)
	}
	return &f, nil
}

func (s *FileStore) LoadDeck(ctx context.Context, id string) (*domain.Deck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("load deck %q: %w", id, domain.ErrInvalidDeck)
	}
	f, err := s.read(id)
	if err != nil {
		return nil, err
	}
	return f.Deck, nil
}

// SaveDeck writes the deck to a temp file and renames it into place. When ctx
// is done before the rename, the old file is left untouched.
func (s *FileStore) SaveDeck(ctx context.Context, deck *domain.Deck) (*domain.SaveAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := deck.Meta.ID
	if !validID(id) {
		return nil, fmt.Errorf("save deck %q: %w", id, domain.ErrInvalidDeck)
	}

	var version int64 = 1
	if prev, err := s.read(id); err == nil {
		version = prev.Version + 1
	}

	now := s.now().UTC()
	c := *deck
	c.Meta.UpdatedAt = now
	b, err := json.MarshalIndent(fileDeck{Version: version, Deck: &c}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode deck: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, id+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write deck: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("sync deck: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close deck: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		return nil, fmt.Errorf("replace deck: %w", err)
	}
	s.written[id] = xxhash.Sum64(b)
	return &domain.SaveAck{DeckID: id, Version: version, UpdatedAt: now}, nil
}

// Written reports whether data is exactly what this store last wrote for id.
func (s *FileStore) Written(id string, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.written[id]
	return ok && h == xxhash.Sum64(data)
}

// ListDecks returns the ids of all stored decks.
func (s *FileStore) ListDecks() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if id, ok := deckID(e.Name()); ok && !e.IsDir() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// deckID extracts the id from a deck file name.
func deckID(name string) (string, bool) {
	name = filepath.Base(name)
	if !strings.HasSuffix(name, ".json") {
		return "", false
	}
	return strings.TrimSuffix(name, ".json"), true
}
