// Package store keeps an optional SQLite history of processed documents.
// The pipeline works without it; it exists for operators who want an audit
// trail of what was processed and what was extracted.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a handle on the history database.
type Store struct {
	db *sql.DB
}

// Entry is one processed-document record.
type Entry struct {
	ID            int64   `json:"id"`
	Filename      string  `json:"filename"`
	ProcessedPath string  `json:"processed_path"`
	Status        string  `json:"status"`
	Name          *string `json:"name"`
	DOB           *string `json:"dob"`
	Age           *int    `json:"age"`
	Error         string  `json:"error,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// Open creates or opens the history database at path and applies the
// schema and any pending migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Record inserts one history entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_documents
			(filename, processed_path, status, name, dob, age, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Filename, e.ProcessedPath, e.Status, e.Name, e.DOB, e.Age, e.Error,
	)
	if err != nil {
		return fmt.Errorf("recording history entry: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, processed_path, status, name, dob, age, error, created_at
		FROM processed_documents
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Filename, &e.ProcessedPath, &e.Status,
			&e.Name, &e.DOB, &e.Age, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
