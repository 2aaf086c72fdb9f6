package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devaloi/quoteboard/internal/domain"
)

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSQLite(filepath.Join(t.TempDir(), "quotes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		"file":   NewFile(filepath.Join(t.TempDir(), "var")),
		"sqlite": sq,
	}
}

func TestStoreEmptyRoom(t *testing.T) {
	t.Parallel()
	for name, s := range backends(t) {
		quotes, err := s.Load("nobody-here")
		require.NoError(t, err, name)
		assert.Empty(t, quotes, name)
		assert.NotNil(t, quotes, name)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	want := []domain.Quote{
		{Text: "plain", Author: "alice"},
		{Text: "line one\nline two\ttabbed", Author: "bob/phone"},
		{Text: "Привет, 世界 🎉 <b>&amp;</b>", Author: "ユーザー"},
		{Text: `back\slash "quoted" ~%~ separator`, Author: ""},
	}
	for name, s := range backends(t) {
		require.NoError(t, s.Save("general", want), name)
		got, err := s.Load("general")
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestStoreSaveReplaces(t *testing.T) {
	t.Parallel()
	for name, s := range backends(t) {
		require.NoError(t, s.Save("general", []domain.Quote{{Text: "a"}, {Text: "b"}, {Text: "c"}}), name)
		require.NoError(t, s.Save("general", []domain.Quote{{Text: "a"}, {Text: "c"}}), name)

		got, err := s.Load("general")
		require.NoError(t, err, name)
		assert.Equal(t, []domain.Quote{{Text: "a"}, {Text: "c"}}, got, name)

		require.NoError(t, s.Save("general", nil), name)
		got, err = s.Load("general")
		require.NoError(t, err, name)
		assert.Empty(t, got, name)
	}
}

func TestStoreRoomIsolation(t *testing.T) {
	t.Parallel()
	for name, s := range backends(t) {
		require.NoError(t, s.Save("room1", []domain.Quote{{Text: "one", Author: "alice"}}), name)
		require.NoError(t, s.Save("room2", []domain.Quote{{Text: "two", Author: "bob"}, {Text: "three", Author: "bob"}}), name)

		q1, err := s.Load("room1")
		require.NoError(t, err, name)
		q2, err := s.Load("room2")
		require.NoError(t, err, name)
		assert.Len(t, q1, 1, name)
		assert.Len(t, q2, 2, name)
	}
}

func TestStoreRejectsInvalidUTF8(t *testing.T) {
	t.Parallel()
	bad := []domain.Quote{
		{Text: "fine", Author: "alice"},
		{Text: "broken \xff\xfe", Author: "bob"},
	}
	for name, s := range backends(t) {
		require.NoError(t, s.Save("general", []domain.Quote{{Text: "kept", Author: "alice"}}), name)

		err := s.Save("general", bad)
		require.ErrorIs(t, err, ErrInvalidText, name)
		assert.Contains(t, err.Error(), "quote 2", name)

		err = s.Save("general", []domain.Quote{{Text: "ok", Author: "\xc3"}})
		require.ErrorIs(t, err, ErrInvalidText, name)

		got, err := s.Load("general")
		require.NoError(t, err, name)
		assert.Equal(t, []domain.Quote{{Text: "kept", Author: "alice"}}, got, name)
	}
}
