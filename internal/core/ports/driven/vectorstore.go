package driven

import (
	"context"

	"github.com/nuri-labs/docrag/internal/core/domain"
)

// Record is one indexed chunk as the vector store sees it. Metadata keys
// used throughout the system: document_id, filename, page, type,
// chunk_index, has_table, table_continued, date, doc_type, doc_title.
type Record struct {
	// ID is the chunk identifier "{document_id}_chunk_{index}".
	ID string

	// Embedding is the chunk's vector. Empty on reads that skip vectors.
	Embedding []float32

	// Text is the chunk content.
	Text string

	// Metadata carries the structured chunk metadata.
	Metadata map[string]any
}

// ScoredRecord is a Record with a similarity score from a ranked query.
type ScoredRecord struct {
	Record

	// Score is the cosine similarity (higher is closer).
	Score float64
}

// VectorStore persists embeddings with metadata and answers
// nearest-neighbour queries. The filter argument is a conjunction of
// equality predicates applied server-side.
type VectorStore interface {
	// Add writes records. Existing ids are overwritten.
	Add(ctx context.Context, records []Record) error

	// Query returns the k nearest records to the embedding, restricted to
	// records matching the filter when one is given.
	Query(ctx context.Context, embedding []float32, k int, filter domain.RetrievalFilter) ([]ScoredRecord, error)

	// Get returns every record matching the filter, without ranking.
	// An empty filter returns all records.
	Get(ctx context.Context, filter domain.RetrievalFilter) ([]Record, error)

	// GetByDocumentID returns every record belonging to a document identity.
	GetByDocumentID(ctx context.Context, documentID string) ([]Record, error)

	// UpdateMetadata rewrites metadata fields on the given records,
	// leaving embeddings untouched.
	UpdateMetadata(ctx context.Context, ids []string, fields map[string]any) error

	// Delete removes records by id and returns nothing; missing ids are
	// not an error.
	Delete(ctx context.Context, ids []string) error

	// Count returns the total number of records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
