// Package tesseract provides OCR by shelling out to the tesseract
// binary, and page rasterization via poppler's pdftoppm. Both tools are
// discovered lazily on first use so the rest of the pipeline keeps
// working on machines without them installed.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// DefaultLanguage covers Korean documents with embedded Latin terms.
const DefaultLanguage = "kor+eng"

// Engine runs the tesseract CLI for text recognition.
type Engine struct {
	runner   driven.CommandRunner
	lang     string
	lookPath func(string) (string, error)

	initOnce sync.Once
	binPath  string
	initErr  error
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLanguage overrides the recognition language string passed to -l.
func WithLanguage(lang string) EngineOption {
	return func(e *Engine) { e.lang = lang }
}

// WithLookPath overrides binary discovery, for tests.
func WithLookPath(fn func(string) (string, error)) EngineOption {
	return func(e *Engine) { e.lookPath = fn }
}

// NewEngine creates a tesseract-backed OCR engine. No I/O happens here;
// the binary is located on the first recognition call.
func NewEngine(runner driven.CommandRunner, opts ...EngineOption) *Engine {
	e := &Engine{
		runner:   runner,
		lang:     DefaultLanguage,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// init locates the tesseract binary. Guarded by initOnce so concurrent
// first calls perform discovery exactly once.
func (e *Engine) init() {
	e.binPath, e.initErr = e.lookPath("tesseract")
}

// Available reports whether the tesseract binary was found.
func (e *Engine) Available() bool {
	e.initOnce.Do(e.init)
	return e.initErr == nil
}

// RecognizeWords runs OCR in TSV mode and returns word fragments with
// bounding boxes and confidences.
func (e *Engine) RecognizeWords(ctx context.Context, img image.Image) ([]driven.OCRWord, error) {
	out, err := e.run(ctx, img, "--psm", "6", "tsv")
	if err != nil {
		return nil, err
	}
	return parseTSV(string(out)), nil
}

// RecognizeText runs OCR and returns the recognised page text.
func (e *Engine) RecognizeText(ctx context.Context, img image.Image) (string, error) {
	out, err := e.run(ctx, img)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// run encodes the image to a temp PNG and invokes tesseract on it.
func (e *Engine) run(ctx context.Context, img image.Image, extra ...string) ([]byte, error) {
	if !e.Available() {
		return nil, fmt.Errorf("%w: %v", domain.ErrOCRUnavailable, e.initErr)
	}

	tmp, err := os.CreateTemp("", "docrag-ocr-*.png")
	if err != nil {
		return nil, fmt.Errorf("creating temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("encoding temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	args := append([]string{tmp.Name(), "stdout", "-l", e.lang}, extra...)
	out, err := e.runner.Run(ctx, e.binPath, args...)
	if err != nil {
		return nil, fmt.Errorf("running tesseract: %w", err)
	}
	return out, nil
}

// parseTSV extracts word-level rows (level 5) from tesseract TSV output.
// Rows with negative confidence are structural and carry no text.
func parseTSV(out string) []driven.OCRWord {
	var words []driven.OCRWord
	for i, line := range strings.Split(out, "\n") {
		if i == 0 {
			continue // header
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}

		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}

		x, _ := strconv.Atoi(cols[6])
		y, _ := strconv.Atoi(cols[7])
		w, _ := strconv.Atoi(cols[8])
		h, _ := strconv.Atoi(cols[9])
		words = append(words, driven.OCRWord{
			Text:       text,
			Confidence: conf,
			X:          x,
			Y:          y,
			W:          w,
			H:          h,
		})
	}
	return words
}
