// Package quote implements the per-room quote board: adding, fetching and
// deleting quotes addressed by their current 1-based position.
package quote

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/devaloi/quoteboard/internal/command"
	"github.com/devaloi/quoteboard/internal/domain"
	"github.com/devaloi/quoteboard/internal/logging"
	"github.com/devaloi/quoteboard/internal/store"
)

// Fixed replies.
const (
	ReplyEmpty    = "No quotes added for this MUC."
	ReplyNotFound = "Quote not found."
)

const usage = `Chat quotes.
Usage:
    "aq <QUOTE TEXT>" - add quote
    "q" - get random quote
    "q 42" - get the quote number 42
    "q lol" - get the first quote containing 'lol' text
    "dq 13" - delete the quote number 13`

// Board answers quote commands against a Store. Every operation loads the
// room's collection, works on it and saves it while holding the room's lock,
// so commands for one room never interleave.
type Board struct {
	store  store.Store
	locks  *roomLocks
	intn   func(n int) int
	logger zerolog.Logger
}

// Option configures a Board.
type Option func(*Board)

// WithRand replaces the source of random indexes. intn must return a value
// in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(b *Board) { b.intn = intn }
}

// WithLogger sets the board's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Board) { b.logger = l }
}

// NewBoard creates a Board backed by s.
func NewBoard(s store.Store, opts ...Option) *Board {
	b := &Board{
		store:  s,
		locks:  newRoomLocks(),
		intn:   rand.Intn,
		logger: *logging.L(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Usage returns the help text for the quote commands. It is served by
// GET /api/usage.
func (b *Board) Usage() string {
	return usage
}

// Handle parses text and runs the matching operation for sender, a
// "room/author" identity. handled is false when text is not a quote command.
// A non-nil error means the command failed and reply should not be shown.
func (b *Board) Handle(sender, text string) (reply string, handled bool, err error) {
	cmd, ok := command.Parse(text)
	if !ok {
		return "", false, nil
	}

	switch cmd.Op {
	case command.OpAdd:
		reply, err = b.Add(sender, cmd.Arg)
	case command.OpGet:
		reply, err = b.Get(sender, cmd.Arg)
	case command.OpDelete:
		reply, err = b.Delete(sender, cmd.Arg)
	}
	if err != nil {
		b.logger.Error().Err(err).Str("sender", sender).Stringer("op", cmd.Op).Msg("quote command failed")
	}
	return reply, true, err
}

// Add appends text as a new quote by the sender's author.
func (b *Board) Add(sender, text string) (string, error) {
	room, author, err := domain.ParseSender(sender)
	if err != nil {
		return "", err
	}

	unlock := b.locks.lock(room)
	defer unlock()

	quotes, err := b.store.Load(room)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", room, err)
	}
	quotes = append(quotes, domain.Quote{Text: text, Author: author})
	if err := b.store.Save(room, quotes); err != nil {
		return "", fmt.Errorf("save %s: %w", room, err)
	}

	n := len(quotes)
	b.logger.Info().Str("room", room).Str("author", author).Int("number", n).Msg("quote added")
	return fmt.Sprintf("Quote added (number %d)", n), nil
}

// Get returns a random quote when arg is empty, quote number arg when arg is
// all digits, and otherwise the first quote whose text or author contains arg.
//
// Search hits are shown with their 0-based position; every other reply is
// 1-based.
func (b *Board) Get(sender, arg string) (string, error) {
	room, _, err := domain.ParseSender(sender)
	if err != nil {
		return "", err
	}

	unlock := b.locks.lock(room)
	defer unlock()

	quotes, err := b.store.Load(room)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", room, err)
	}
	count := len(quotes)
	if count == 0 {
		return ReplyEmpty, nil
	}

	if arg == "" {
		i := b.intn(count)
		return format(strconv.Itoa(i+1), count, quotes[i]), nil
	}

	if command.IsNumber(arg) {
		n, ok := position(arg, count)
		if !ok {
			return ReplyNotFound, nil
		}
		return format(arg, count, quotes[n-1]), nil
	}

	for i, q := range quotes {
		if q.Contains(arg) {
			return format(strconv.Itoa(i), count, q), nil
		}
	}
	return ReplyNotFound, nil
}

// Delete removes quote number arg. Later quotes move up by one.
func (b *Board) Delete(sender, arg string) (string, error) {
	room, _, err := domain.ParseSender(sender)
	if err != nil {
		return "", err
	}

	unlock := b.locks.lock(room)
	defer unlock()

	quotes, err := b.store.Load(room)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", room, err)
	}
	if len(quotes) == 0 {
		return ReplyEmpty, nil
	}

	n, ok := position(arg, len(quotes))
	if !ok {
		return ReplyNotFound, nil
	}
	quotes = append(quotes[:n-1], quotes[n:]...)
	if err := b.store.Save(room, quotes); err != nil {
		return "", fmt.Errorf("save %s: %w", room, err)
	}

	b.logger.Info().Str("room", room).Int("number", n).Msg("quote deleted")
	return fmt.Sprintf("Quote %d deleted.", n), nil
}

// List returns a copy of the room's quotes in display order. It never
// creates storage for a room that has none.
func (b *Board) List(room string) ([]domain.Quote, error) {
	unlock := b.locks.lock(room)
	defer unlock()

	quotes, err := b.store.Peek(room)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", room, err)
	}
	return quotes, nil
}

// position parses a 1-based quote number and checks it against count.
func position(arg string, count int) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 || n > count {
		return 0, false
	}
	return n, true
}

func format(index string, count int, q domain.Quote) string {
	return fmt.Sprintf("[%s/%d] (added by %s)\n%s", index, count, q.Author, q.Text)
}
