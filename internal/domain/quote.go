package domain

import (
	"errors"
	"strings"
)

// ErrInvalidSender is returned when a sender identity has no room part.
var ErrInvalidSender = errors.New("sender must have the form room/author")

// Quote is a single stored quote. Quotes are never edited in place.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// Contains reports whether s occurs in the quote text or its author.
func (q Quote) Contains(s string) bool {
	return strings.Contains(q.Text, s) || strings.Contains(q.Author, s)
}

// ParseSender splits a composite "room/author" identity on its first slash.
// The author keeps any further slashes.
func ParseSender(sender string) (room, author string, err error) {
	room, author, ok := strings.Cut(sender, "/")
	if !ok || room == "" {
		return "", "", ErrInvalidSender
	}
	return room, author, nil
}
