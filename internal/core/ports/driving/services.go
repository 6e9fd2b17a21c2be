// Package driving provides interfaces for application entry points
// (primary/inbound ports) consumed by the HTTP and CLI adapters.
package driving

import (
	"context"

	"github.com/nuri-labs/docrag/internal/core/domain"
)

// UploadResult reports a completed ingestion.
type UploadResult struct {
	DocumentID string
	Filename   string
	ChunkCount int
}

// FileInfo describes one registered document for listings.
type FileInfo struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Date     string `json:"date,omitempty"`
	DocType  string `json:"doc_type,omitempty"`
	DocTitle string `json:"doc_title,omitempty"`

	// StoredPath is where the original bytes live on disk. Kept out of
	// JSON listings; used by the download handler.
	StoredPath string `json:"-"`
}

// CorpusStats aggregates the catalog for listings.
type CorpusStats struct {
	TotalCount int            `json:"total_count"`
	ByDocType  map[string]int `json:"by_doc_type"`
}

// IngestService handles upload, deletion, and re-indexing.
type IngestService interface {
	// Upload validates, stores, decomposes, chunks, and indexes a file.
	// A filename that is already indexed is rejected with a
	// *domain.DuplicateError carrying the existing identity.
	Upload(ctx context.Context, filename string, content []byte) (*UploadResult, error)

	// Delete removes a document's records and stored file. Deletion is
	// attempted by identity, then by original filename, then by derived
	// path identity, stopping at first success. Returns removed record
	// count.
	Delete(ctx context.Context, id string) (int, error)

	// Reindex re-decomposes and re-indexes a registered document.
	Reindex(ctx context.Context, id string) (*UploadResult, error)

	// List returns registered files, optionally filtered, plus stats.
	List(ctx context.Context, docType, date string) ([]FileInfo, CorpusStats, error)

	// CorrectDocType bulk-rewrites a parsed doc-type value in both the
	// registry and the vector store metadata. Returns changed record count.
	CorrectDocType(ctx context.Context, old, corrected string) (int, error)
}

// QueryService answers natural-language questions grounded in the
// indexed corpus.
type QueryService interface {
	Ask(ctx context.Context, query string) (*domain.Answer, error)
}

// ReconcileReport lists identities present in only one of the registry
// and the vector store.
type ReconcileReport struct {
	// MissingRecords are registry entries with no vector records.
	MissingRecords []string

	// OrphanRecords are vector-store identities absent from the registry.
	OrphanRecords []string
}

// CatalogService reconciles the two sources of truth for which
// documents exist.
type CatalogService interface {
	// Check reports mismatches without repairing them.
	Check(ctx context.Context) (*ReconcileReport, error)

	// Repair deletes orphan records and re-indexes registry entries whose
	// records are missing, returning the resulting report.
	Repair(ctx context.Context) (*ReconcileReport, error)
}
