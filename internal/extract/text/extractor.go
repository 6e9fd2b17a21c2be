// Package text handles plain text and markdown files.
package text

import (
	"context"
	"os"
	"strings"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads the whole file as one text unit.
type Extractor struct{}

// New creates a plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "text"
}

// SupportedExtensions returns the handled file extensions.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".txt", ".md"}
}

// Extract returns the file content as a single page-1 text unit.
func (e *Extractor) Extract(_ context.Context, src *driven.SourceFile) ([]domain.Unit, error) {
	content, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, domain.ErrEmptyDocument
	}

	return []domain.Unit{{
		Text: text,
		Page: 1,
		Kind: domain.UnitText,
	}}, nil
}
