package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"sync"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
)

// Ensure Rasterizer implements the interface.
var _ driven.PageRasterizer = (*Rasterizer)(nil)

// Rasterizer renders PDF pages to images via poppler's pdftoppm.
type Rasterizer struct {
	runner   driven.CommandRunner
	lookPath func(string) (string, error)

	initOnce sync.Once
	binPath  string
	initErr  error
}

// RasterizerOption configures a Rasterizer.
type RasterizerOption func(*Rasterizer)

// WithRasterizerLookPath overrides binary discovery, for tests.
func WithRasterizerLookPath(fn func(string) (string, error)) RasterizerOption {
	return func(r *Rasterizer) { r.lookPath = fn }
}

// NewRasterizer creates a pdftoppm-backed page rasterizer.
func NewRasterizer(runner driven.CommandRunner, opts ...RasterizerOption) *Rasterizer {
	r := &Rasterizer{
		runner:   runner,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Rasterizer) init() {
	r.binPath, r.initErr = r.lookPath("pdftoppm")
}

// Available reports whether the pdftoppm binary was found.
func (r *Rasterizer) Available() bool {
	r.initOnce.Do(r.init)
	return r.initErr == nil
}

// Rasterize renders the given 1-based page to a PNG image at the
// requested DPI. pdftoppm writes the image to stdout when no output
// file root is given.
func (r *Rasterizer) Rasterize(ctx context.Context, path string, page, dpi int) (image.Image, error) {
	if !r.Available() {
		return nil, fmt.Errorf("%w: pdftoppm: %v", domain.ErrOCRUnavailable, r.initErr)
	}

	p := strconv.Itoa(page)
	out, err := r.runner.Run(ctx, r.binPath,
		"-png", "-r", strconv.Itoa(dpi), "-f", p, "-l", p, path)
	if err != nil {
		return nil, fmt.Errorf("rasterizing page %d of %s: %w", page, path, err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decoding rasterized page: %w", err)
	}
	return img, nil
}
