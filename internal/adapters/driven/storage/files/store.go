// Package files keeps original uploaded bytes on disk. Files are named
// "{id}_{original name}" so the identity is recoverable from the
// directory listing alone.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nuri-labs/docrag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.FileStore = (*Store)(nil)

// Store is a directory-backed file store.
type Store struct {
	dir string
}

// New creates a file store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes content under the document identity, replacing any
// previous file stored for it.
func (s *Store) Save(id, filename string, content []byte) (string, error) {
	if err := s.Delete(id); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, id+"_"+sanitise(filename))
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Path resolves the stored path for an identity by directory scan.
func (s *Store) Path(id string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(s.dir, id+"_*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// Delete removes the stored file. Missing files are not an error.
func (s *Store) Delete(id string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, id+"_*"))
	if err != nil {
		return fmt.Errorf("scanning upload directory: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", m, err)
		}
	}
	return nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// sanitise strips path separators from the original filename so it can
// never escape the upload directory.
func sanitise(filename string) string {
	filename = filepath.Base(filename)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, filename)
}
