package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
	"github.com/nuri-labs/docrag/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches files to extractors by extension.
type Registry struct {
	byExt map[string]driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt: make(map[string]driven.Extractor),
	}
}

// Register adds an extractor for each of its supported extensions.
// A later registration for the same extension wins.
func (r *Registry) Register(e driven.Extractor) {
	for _, ext := range e.SupportedExtensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Extract decomposes the file using the extractor registered for its
// extension. The extension is taken from the original filename, not the
// stored path.
func (r *Registry) Extract(ctx context.Context, src *driven.SourceFile) ([]domain.Unit, error) {
	ext := strings.ToLower(filepath.Ext(src.OriginalName))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, ext)
	}

	logger.Debug("Extracting %s with %s", src.OriginalName, e.Name())
	units, err := e.Extract(ctx, src)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, domain.ErrNoExtraction
	}
	return units, nil
}

// SupportedExtensions returns all registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
