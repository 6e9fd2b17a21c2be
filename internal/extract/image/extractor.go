// Package image handles standalone image files via OCR.
package image

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor recognises the whole image as one OCR unit.
type Extractor struct {
	ocr driven.OCREngine
}

// New creates an image extractor backed by the given OCR engine.
func New(ocr driven.OCREngine) *Extractor {
	return &Extractor{ocr: ocr}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "image"
}

// SupportedExtensions returns the handled file extensions.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".png", ".jpg", ".jpeg"}
}

// Extract runs OCR over the full image.
func (e *Extractor) Extract(ctx context.Context, src *driven.SourceFile) ([]domain.Unit, error) {
	if e.ocr == nil || !e.ocr.Available() {
		return nil, domain.ErrOCRUnavailable
	}

	f, err := os.Open(src.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	text, err := e.ocr.RecognizeText(ctx, img)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyDocument
	}

	return []domain.Unit{{
		Text: text,
		Page: 1,
		Kind: domain.UnitOCR,
	}}, nil
}
