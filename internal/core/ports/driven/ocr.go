package driven

import (
	"context"
	"image"
)

// OCRWord is one recognised text fragment with its bounding box in
// pixel coordinates and a confidence in [0,100].
type OCRWord struct {
	Text       string
	Confidence float64
	X, Y, W, H int
}

// OCREngine recognises text in images. Engine initialisation is lazy and
// memoized once per process; implementations must guard the first call
// against concurrent initialisation.
type OCREngine interface {
	// RecognizeWords runs OCR and returns fragments with bounding boxes.
	RecognizeWords(ctx context.Context, img image.Image) ([]OCRWord, error)

	// RecognizeText runs OCR and returns the page text in reading order.
	RecognizeText(ctx context.Context, img image.Image) (string, error)

	// Available reports whether the engine can run at all. Strategies
	// that need OCR skip themselves when this is false.
	Available() bool
}

// PageRasterizer renders one page of a document file to an image.
type PageRasterizer interface {
	// Rasterize renders the 1-based page at the given DPI.
	Rasterize(ctx context.Context, path string, page, dpi int) (image.Image, error)

	// Available reports whether rasterization can run at all.
	Available() bool
}

// CommandRunner executes an external command and returns its standard
// output. It exists so adapters that shell out can be tested without
// the binary installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
