package driven

import (
	"context"

	"github.com/nuri-labs/docrag/internal/core/domain"
)

// FileRegistry is the persisted filename-to-document map. It survives
// process restarts and recovers original filenames for identities that
// are not self-describing from storage layout alone.
type FileRegistry interface {
	// Save stores or replaces a document entry.
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves an entry by document identity.
	// Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByFilename retrieves an entry by original filename.
	// Returns domain.ErrNotFound when absent.
	GetByFilename(ctx context.Context, filename string) (*domain.Document, error)

	// List returns all entries ordered by creation time.
	List(ctx context.Context) ([]domain.Document, error)

	// ListDocTypes returns the distinct parsed doc-type values.
	ListDocTypes(ctx context.Context) ([]string, error)

	// UpdateDocType rewrites the parsed doc type for entries whose
	// current value equals old, returning how many entries changed.
	UpdateDocType(ctx context.Context, old, corrected string) (int, error)

	// Delete removes an entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}

// FileStore keeps the original uploaded bytes on disk.
type FileStore interface {
	// Save writes content under the document identity and returns the
	// stored path.
	Save(id, filename string, content []byte) (string, error)

	// Path resolves the stored path for an identity, falling back to a
	// directory scan when the registry has lost track of it.
	Path(id string) (string, bool)

	// Delete removes the stored file. Missing files are not an error.
	Delete(id string) error
}
