package store

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/devaloi/quoteboard/internal/domain"
)

// ErrInvalidText is returned by Save when a quote's text or author is not
// valid UTF-8. Neither backend could read such a string back unchanged.
var ErrInvalidText = errors.New("quote is not valid UTF-8")

// Store persists one ordered quote collection per room.
type Store interface {
	// Load returns the room's quotes in display order. A room that has never
	// been written reads back as an empty slice.
	Load(room string) ([]domain.Quote, error)
	// Peek is Load for read-only callers: it never creates anything for a
	// room that has no stored collection.
	Peek(room string) ([]domain.Quote, error)
	// Save replaces the room's whole collection.
	Save(room string, quotes []domain.Quote) error
	// Close releases any resources held by the store.
	Close() error
}

func checkText(quotes []domain.Quote) error {
	for i, q := range quotes {
		if !utf8.ValidString(q.Text) || !utf8.ValidString(q.Author) {
			return fmt.Errorf("quote %d: %w", i+1, ErrInvalidText)
		}
	}
	return nil
}
