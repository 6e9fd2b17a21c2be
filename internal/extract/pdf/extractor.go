// Package pdf decomposes PDF documents page by page. Each page runs a
// priority-ordered cascade of extraction strategies; the first strategy
// that yields units wins, and a strategy failure only means falling
// through to the next one.
package pdf

import (
	"context"
	"image"

	ledongthuc "github.com/ledongthuc/pdf"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
	"github.com/nuri-labs/docrag/internal/logger"
)

// DefaultDPI is the rasterization resolution for the image-based
// strategies.
const DefaultDPI = 150

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles PDF documents.
type Extractor struct {
	ocr    driven.OCREngine
	raster driven.PageRasterizer
	dpi    int
}

// Option configures the extractor.
type Option func(*Extractor)

// WithDPI sets the rasterization resolution.
func WithDPI(dpi int) Option {
	return func(e *Extractor) {
		if dpi > 0 {
			e.dpi = dpi
		}
	}
}

// New creates a PDF extractor. The OCR engine and rasterizer may be nil;
// the image-based strategies then skip themselves.
func New(ocr driven.OCREngine, raster driven.PageRasterizer, opts ...Option) *Extractor {
	e := &Extractor{
		ocr:    ocr,
		raster: raster,
		dpi:    DefaultDPI,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "pdf"
}

// SupportedExtensions returns the handled file extensions.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// pageStrategy produces zero or more units for one page. A nil error
// with no units means the strategy found nothing and the next one runs.
type pageStrategy struct {
	name string
	run  func(ctx context.Context, p *pageContext) ([]domain.Unit, error)
}

// pageContext carries per-page state shared by the strategies. The
// rasterized image is computed once and reused.
type pageContext struct {
	extractor *Extractor
	path      string
	number    int
	page      ledongthuc.Page

	img       image.Image
	imgFailed bool
}

// ocrReady reports whether the image-based strategies can run.
func (p *pageContext) ocrReady() bool {
	e := p.extractor
	return e.ocr != nil && e.ocr.Available() &&
		e.raster != nil && e.raster.Available()
}

// rasterize renders the page once, caching the result. A failed render
// is remembered so later strategies do not retry it.
func (p *pageContext) rasterize(ctx context.Context) (image.Image, error) {
	if p.img != nil {
		return p.img, nil
	}
	if p.imgFailed {
		return nil, domain.ErrNoExtraction
	}

	img, err := p.extractor.raster.Rasterize(ctx, p.path, p.number, p.extractor.dpi)
	if err != nil {
		p.imgFailed = true
		return nil, err
	}
	p.img = img
	return img, nil
}

// Extract decomposes each page through the strategy cascade. A page
// where every strategy comes up empty is skipped rather than failing
// the document.
func (e *Extractor) Extract(ctx context.Context, src *driven.SourceFile) ([]domain.Unit, error) {
	f, reader, err := ledongthuc.Open(src.Path)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	defer f.Close()

	strategies := []pageStrategy{
		{name: "native-layout", run: nativeLayout},
		{name: "line-geometry", run: lineGeometry},
		{name: "coordinate-cluster", run: coordinateCluster},
		{name: "plain", run: plainText},
	}

	var units []domain.Unit
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}

		pc := &pageContext{
			extractor: e,
			path:      src.Path,
			number:    num,
			page:      page,
		}

		pageUnits := e.runCascade(ctx, pc, strategies)
		if len(pageUnits) == 0 {
			logger.Debug("Page %d: no strategy produced output", num)
			continue
		}
		units = append(units, pageUnits...)
	}

	return units, nil
}

// runCascade folds the strategies in priority order, short-circuiting
// on the first non-empty result. Strategy errors are demoted to
// empty results.
func (e *Extractor) runCascade(ctx context.Context, pc *pageContext, strategies []pageStrategy) []domain.Unit {
	for _, s := range strategies {
		if ctx.Err() != nil {
			return nil
		}

		units, err := s.run(ctx, pc)
		if err != nil {
			logger.Debug("Page %d: strategy %s failed: %v", pc.number, s.name, err)
			continue
		}
		if len(units) > 0 {
			logger.Debug("Page %d: strategy %s produced %d units", pc.number, s.name, len(units))
			return units
		}
	}
	return nil
}
