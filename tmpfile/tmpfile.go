// Package tmpfile stores uploaded byte streams under uniquely generated
// names inside a single directory, and removes them once processing is done.
package tmpfile

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store writes files into dir, prefixing each generated name.
type Store struct {
	dir    string
	prefix string
}

// New creates the directory if needed and returns a Store over it.
func New(dir, prefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return &Store{dir: dir, prefix: prefix}, nil
}

// Dir returns the directory this store writes into.
func (s *Store) Dir() string { return s.dir }

// Save writes content fully to a unique path built from the store prefix,
// a random disambiguator, and the sanitized original filename. The path is
// returned only after the file is completely written and closed.
func (s *Store) Save(filename string, content io.Reader) (string, error) {
	// Base strips any directory components a client may have smuggled in.
	safe := filepath.Base(filename)
	path := filepath.Join(s.dir, fmt.Sprintf("%s%s_%s", s.prefix, uuid.NewString(), safe))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// Remove deletes each path if present. A missing path is not an error, and
// a failed deletion is logged without stopping the remaining ones.
func (s *Store) Remove(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			slog.Warn("tmpfile: could not remove", "path", p, "error", err)
		}
	}
}
