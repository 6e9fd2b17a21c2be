package driven

import (
	"context"

	"github.com/nuri-labs/docrag/internal/core/domain"
)

// SourceFile is the input to extraction: the stored file plus its
// declared original name (which carries the metadata pattern).
type SourceFile struct {
	// Path is the stored location on disk.
	Path string

	// OriginalName is the filename as uploaded.
	OriginalName string
}

// Extractor turns one file into ordered extraction units. Each extractor
// handles specific file extensions; the registry dispatches on the
// original filename's extension.
//
// Extractors must degrade, not fail: an internal or missing-dependency
// failure inside one strategy yields an empty result and lets the next
// strategy proceed. Only unreadable input surfaces as an error.
type Extractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// SupportedExtensions returns lowercase extensions including the dot.
	SupportedExtensions() []string

	// Extract produces the ordered unit list for the file.
	Extract(ctx context.Context, src *SourceFile) ([]domain.Unit, error)
}

// ExtractorRegistry selects the extractor for a file extension.
type ExtractorRegistry interface {
	// Extract dispatches to the extractor registered for the file's
	// extension. Returns domain.ErrUnsupportedType for unknown extensions.
	Extract(ctx context.Context, src *SourceFile) ([]domain.Unit, error)

	// Register adds an extractor to the registry.
	Register(e Extractor)

	// SupportedExtensions returns every extension with a registered
	// extractor.
	SupportedExtensions() []string
}
