package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateDocument indicates a document with the same original
	// filename is already indexed.
	ErrDuplicateDocument = errors.New("duplicate document")

	// ErrUnsupportedType indicates a file extension outside the allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrEmptyDocument indicates an upload with no content.
	ErrEmptyDocument = errors.New("empty document")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable indicates the generation provider is not reachable.
	// Queries degrade to an explanatory not-found answer, never a crash.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding provider is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrOCRUnavailable indicates no OCR engine could be initialised.
	// Image-based extraction strategies are skipped when this is returned.
	ErrOCRUnavailable = errors.New("OCR engine unavailable")

	// ErrNoExtraction indicates every extraction strategy produced nothing.
	ErrNoExtraction = errors.New("no extraction result")
)

// DuplicateError reports an upload rejected because a document with the
// same original filename is already indexed. It unwraps to
// ErrDuplicateDocument for errors.Is checks.
type DuplicateError struct {
	// Filename is the rejected upload's original filename.
	Filename string

	// ExistingID is the identity already holding that filename.
	ExistingID string
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	return "duplicate document: " + e.Filename + " is already indexed as " + e.ExistingID
}

// Unwrap allows errors.Is(err, ErrDuplicateDocument).
func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateDocument
}
