// Package sqlite provides a FileRegistry backed by SQLite. The registry
// is the durable filename-to-identity map; it survives restarts and
// lets stored files keep their original names even after the vector
// store is rebuilt.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.FileRegistry = (*Registry)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id                TEXT PRIMARY KEY,
	original_filename TEXT NOT NULL UNIQUE,
	stored_path       TEXT NOT NULL,
	size              INTEGER NOT NULL,
	date              TEXT NOT NULL DEFAULT '',
	doc_type          TEXT NOT NULL DEFAULT '',
	doc_title         TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_doc_type ON documents(doc_type);
CREATE INDEX IF NOT EXISTS idx_documents_date ON documents(date);
`

// Registry is a SQLite-backed file registry.
type Registry struct {
	db   *sql.DB
	path string
}

// NewRegistry creates a registry at the specified data directory.
// If dataDir is empty, defaults to ~/.docrag/data.
func NewRegistry(dataDir string) (*Registry, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docrag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "registry.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Registry{db: db, path: dbPath}, nil
}

// Save stores or replaces a document entry.
func (r *Registry) Save(ctx context.Context, doc *domain.Document) error {
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, original_filename, stored_path, size, date, doc_type, doc_title, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			original_filename = excluded.original_filename,
			stored_path = excluded.stored_path,
			size = excluded.size,
			date = excluded.date,
			doc_type = excluded.doc_type,
			doc_title = excluded.doc_title`,
		doc.ID, doc.OriginalFilename, doc.StoredPath, doc.Size,
		doc.Date, doc.DocType, doc.DocTitle, createdAt)
	if err != nil {
		return fmt.Errorf("saving document %s: %w", doc.ID, err)
	}
	return nil
}

// Get retrieves an entry by document identity.
func (r *Registry) Get(ctx context.Context, id string) (*domain.Document, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, original_filename, stored_path, size, date, doc_type, doc_title, created_at
		FROM documents WHERE id = ?`, id))
}

// GetByFilename retrieves an entry by original filename.
func (r *Registry) GetByFilename(ctx context.Context, filename string) (*domain.Document, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, original_filename, stored_path, size, date, doc_type, doc_title, created_at
		FROM documents WHERE original_filename = ?`, filename))
}

func (r *Registry) scanOne(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	err := row.Scan(&doc.ID, &doc.OriginalFilename, &doc.StoredPath, &doc.Size,
		&doc.Date, &doc.DocType, &doc.DocTitle, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// List returns all entries ordered by creation time.
func (r *Registry) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, original_filename, stored_path, size, date, doc_type, doc_title, created_at
		FROM documents ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.OriginalFilename, &doc.StoredPath, &doc.Size,
			&doc.Date, &doc.DocType, &doc.DocTitle, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListDocTypes returns the distinct parsed doc-type values.
func (r *Registry) ListDocTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT doc_type FROM documents WHERE doc_type != '' ORDER BY doc_type`)
	if err != nil {
		return nil, fmt.Errorf("listing doc types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var dt string
		if err := rows.Scan(&dt); err != nil {
			return nil, fmt.Errorf("scanning doc type: %w", err)
		}
		types = append(types, dt)
	}
	return types, rows.Err()
}

// UpdateDocType rewrites the parsed doc type for entries whose current
// value equals old.
func (r *Registry) UpdateDocType(ctx context.Context, old, corrected string) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET doc_type = ? WHERE doc_type = ?`, corrected, old)
	if err != nil {
		return 0, fmt.Errorf("updating doc type: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	return nil
}

// Path returns the database file path.
func (r *Registry) Path() string {
	return r.path
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}
