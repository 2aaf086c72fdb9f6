package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/devaloi/quoteboard/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given path.
// Use ":memory:" for an in-memory database.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and avoids
	// SQLITE_BUSY between concurrent rooms.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS quotes (
			room TEXT NOT NULL,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			author TEXT NOT NULL,
			PRIMARY KEY (room, position)
		);
	`)
	return err
}

// Load returns a room's quotes ordered by position.
func (s *SQLiteStore) Load(room string) ([]domain.Quote, error) {
	rows, err := s.db.Query(
		"SELECT text, author FROM quotes WHERE room = ? ORDER BY position",
		room,
	)
	if err != nil {
		return nil, fmt.Errorf("query quotes for %s: %w", room, err)
	}
	defer rows.Close()

	quotes := []domain.Quote{}
	for rows.Next() {
		var q domain.Quote
		if err := rows.Scan(&q.Text, &q.Author); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return quotes, nil
}

// Peek is Load; reading a room never writes to the database.
func (s *SQLiteStore) Peek(room string) ([]domain.Quote, error) {
	return s.Load(room)
}

// Save replaces a room's rows in a single transaction.
func (s *SQLiteStore) Save(room string, quotes []domain.Quote) error {
	if err := checkText(quotes); err != nil {
		return fmt.Errorf("save %s: %w", room, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM quotes WHERE room = ?", room); err != nil {
		return fmt.Errorf("clear quotes for %s: %w", room, err)
	}

	stmt, err := tx.Prepare("INSERT INTO quotes (room, position, text, author) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, q := range quotes {
		if _, err := stmt.Exec(room, i, q.Text, q.Author); err != nil {
			return fmt.Errorf("insert quote %d for %s: %w", i+1, room, err)
		}
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
