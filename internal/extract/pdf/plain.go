package pdf

import (
	"context"
	"strings"

	"github.com/nuri-labs/docrag/internal/core/domain"
)

// plainText is the final fallback: sequential text extraction with no
// table awareness. Scanned pages with no embedded text degrade to
// whole-page OCR when an engine is available.
func plainText(ctx context.Context, p *pageContext) ([]domain.Unit, error) {
	text, err := p.page.GetPlainText(nil)
	if err == nil {
		text = strings.TrimSpace(text)
		if text != "" {
			return []domain.Unit{{
				Text: text,
				Page: p.number,
				Kind: domain.UnitText,
			}}, nil
		}
	}

	if !p.ocrReady() {
		return nil, nil
	}

	img, err := p.rasterize(ctx)
	if err != nil {
		return nil, nil
	}

	ocrText, err := p.extractor.ocr.RecognizeText(ctx, img)
	if err != nil {
		return nil, nil
	}
	ocrText = strings.TrimSpace(ocrText)
	if ocrText == "" {
		return nil, nil
	}

	return []domain.Unit{{
		Text: ocrText,
		Page: p.number,
		Kind: domain.UnitOCR,
	}}, nil
}
