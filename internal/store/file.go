package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/devaloi/quoteboard/internal/domain"
	"github.com/devaloi/quoteboard/internal/logging"
)

const fileFormatVersion = 1

// quoteFile is the on-disk JSON document for one room.
type quoteFile struct {
	Version int            `json:"version"`
	Quotes  []domain.Quote `json:"quotes"`
}

// FileStore implements Store with one JSON file per room under a base
// directory.
type FileStore struct {
	dir string
}

// NewFile returns a FileStore rooted at dir. The directory is created lazily.
func NewFile(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the file that holds the given room's quotes.
func (s *FileStore) Path(room string) string {
	return filepath.Join(s.dir, "quotes_"+url.PathEscape(room)+".json")
}

// Load reads a room's quotes. A missing file is created empty; empty or
// undecodable content reads as no quotes.
func (s *FileStore) Load(room string) ([]domain.Quote, error) {
	quotes, err := s.Peek(room)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		path := s.Path(room)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := touch(path); err != nil {
				return nil, fmt.Errorf("create quote file for %s: %w", room, err)
			}
		}
	}
	return quotes, nil
}

// Peek reads a room's quotes like Load, but a missing file stays missing.
func (s *FileStore) Peek(room string) ([]domain.Quote, error) {
	path := s.Path(room)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Quote{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read quote file for %s: %w", room, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Quote{}, nil
	}

	var f quoteFile
	if err := json.Unmarshal(data, &f); err != nil {
		logging.L().Warn().Err(err).Str("room", room).Str("path", path).
			Msg("undecodable quote file, treating as empty")
		return []domain.Quote{}, nil
	}
	if f.Quotes == nil {
		return []domain.Quote{}, nil
	}
	return f.Quotes, nil
}

// Save atomically replaces a room's file: the collection is written to a temp
// file in the same directory, synced, then renamed over the target.
func (s *FileStore) Save(room string, quotes []domain.Quote) error {
	if err := checkText(quotes); err != nil {
		return fmt.Errorf("save %s: %w", room, err)
	}

	var data []byte
	if len(quotes) > 0 {
		var err error
		data, err = json.Marshal(quoteFile{Version: fileFormatVersion, Quotes: quotes})
		if err != nil {
			return fmt.Errorf("encode quotes for %s: %w", room, err)
		}
	}

	path := s.Path(room)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create quote dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".quotes-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}

// Close is a no-op; FileStore holds no open handles.
func (s *FileStore) Close() error { return nil }

func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
