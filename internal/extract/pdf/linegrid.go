package pdf

import (
	"context"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/tabular"
)

// Tuning for the line-geometry strategy, in raster pixels at the
// configured DPI.
const (
	lineBinThreshold  = 150
	lineKernelLength  = 15
	lineDilateRadius  = 1
	lineMinLinePixels = 500

	cellMinWidth  = 20
	cellMinHeight = 10
	cellMinArea   = 200

	lineRowTolerance = 20
)

// lineGeometry detects ruled tables: it isolates long horizontal and
// vertical runs from the rasterized page, treats the enclosed regions
// as cells, OCRs each cell independently, and reassembles rows by
// clustering cell centers on the Y axis.
func lineGeometry(ctx context.Context, p *pageContext) ([]domain.Unit, error) {
	if !p.ocrReady() {
		return nil, nil
	}

	img, err := p.rasterize(ctx)
	if err != nil {
		return nil, nil
	}

	bm := binarize(img, lineBinThreshold)
	horizontal := erodeHorizontal(bm, lineKernelLength)
	vertical := erodeVertical(bm, lineKernelLength)
	lines := merge(horizontal, vertical)

	if countSet(lines) < lineMinLinePixels {
		return nil, nil
	}

	mask := dilate(lines, lineDilateRadius)
	boxes := cellBoxes(mask)
	if len(boxes) < 4 {
		return nil, nil
	}

	type cell struct {
		text   string
		cx, cy int
	}
	cells := make([]cell, 0, len(boxes))
	for _, box := range boxes {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		text, err := p.extractor.ocr.RecognizeText(ctx, crop(img, box))
		if err != nil {
			continue
		}
		cells = append(cells, cell{
			text: strings.TrimSpace(text),
			cx:   (box.Min.X + box.Max.X) / 2,
			cy:   (box.Min.Y + box.Max.Y) / 2,
		})
	}
	if len(cells) == 0 {
		return nil, nil
	}

	// Rows are clusters of cell centers on the Y axis.
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].cy < cells[j].cy })

	var grid [][]string
	var rowCells []cell
	flushRow := func() {
		if len(rowCells) == 0 {
			return
		}
		sort.SliceStable(rowCells, func(i, j int) bool { return rowCells[i].cx < rowCells[j].cx })
		row := make([]string, 0, len(rowCells))
		for _, c := range rowCells {
			row = append(row, c.text)
		}
		grid = append(grid, row)
		rowCells = nil
	}

	for _, c := range cells {
		if len(rowCells) > 0 && c.cy-rowCells[0].cy > lineRowTolerance {
			flushRow()
		}
		rowCells = append(rowCells, c)
	}
	flushRow()

	if len(grid) < 2 || maxColumns(grid) < 2 {
		return nil, nil
	}

	table := tabular.Normalize(grid)
	if table == "" {
		return nil, nil
	}
	return []domain.Unit{{
		Text: table,
		Page: p.number,
		Kind: domain.UnitTable,
	}}, nil
}

// cellBoxes returns the bounding boxes of the regions enclosed by the
// line mask, filtered to plausible cell dimensions. The page background
// and line fragments fall outside the size window.
func cellBoxes(mask *bitmap) []image.Rectangle {
	total := mask.w * mask.h
	var out []image.Rectangle
	for _, box := range connectedComponents(invert(mask)) {
		w, h := box.Dx(), box.Dy()
		area := w * h
		if w > cellMinWidth && h > cellMinHeight &&
			area > cellMinArea && area < total/2 {
			out = append(out, box)
		}
	}
	return out
}

func countSet(bm *bitmap) int {
	n := 0
	for _, b := range bm.bits {
		if b {
			n++
		}
	}
	return n
}

func maxColumns(grid [][]string) int {
	max := 0
	for _, row := range grid {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// crop copies a region of the page image into a standalone grayscale
// image for per-cell OCR.
func crop(img image.Image, box image.Rectangle) image.Image {
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, box.Dx(), box.Dy()))
	for y := 0; y < box.Dy(); y++ {
		for x := 0; x < box.Dx(); x++ {
			c := color.GrayModel.Convert(img.At(bounds.Min.X+box.Min.X+x, bounds.Min.Y+box.Min.Y+y))
			out.Set(x, y, c)
		}
	}
	return out
}
