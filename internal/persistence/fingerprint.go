// Package persistence saves the edited deck to a store in the background.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"deckeditor/internal/domain"
)

// ErrUnencodable is returned for a deck that cannot be encoded, for example one
// holding NaN coordinates.
var ErrUnencodable = errors.New("deck cannot be encoded")

// Fingerprint hashes the deck's content. The volatile updatedAt timestamp is left
// out, so a deck that only had its timestamp bumped hashes the same.
func Fingerprint(d *domain.Deck) (uint64, error) {
	if d == nil {
		return 0, nil
	}
	c := *d
	c.Meta.UpdatedAt = time.Time{}
	b, err := json.Marshal(&c)
	if err != nil {
		return 0, fmt.Errorf("fingerprint deck: %w: %v", ErrUnencodable, err)
	}
	return xxhash.Sum64(b), nil
}
