package pdf

import (
	"context"
	"sort"
	"strings"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
	"github.com/nuri-labs/docrag/internal/tabular"
)

// Tuning for the coordinate-clustering strategy, in raster pixels.
const (
	clusterBandHeight = 20
	clusterConfFloor  = 30
	clusterCellGap    = 15
)

// coordinateCluster infers a table from word positions alone, for pages
// whose tables have no ruled lines. Whole-page OCR detections are
// bucketed into fixed-height Y bands; a result is accepted only when at
// least two bands hold multiple gap-separated cells.
func coordinateCluster(ctx context.Context, p *pageContext) ([]domain.Unit, error) {
	if !p.ocrReady() {
		return nil, nil
	}

	img, err := p.rasterize(ctx)
	if err != nil {
		return nil, nil
	}

	words, err := p.extractor.ocr.RecognizeWords(ctx, img)
	if err != nil {
		return nil, nil
	}

	bands := make(map[int][]driven.OCRWord)
	for _, w := range words {
		if w.Confidence < clusterConfFloor || strings.TrimSpace(w.Text) == "" {
			continue
		}
		band := w.Y / clusterBandHeight
		bands[band] = append(bands[band], w)
	}
	if len(bands) == 0 {
		return nil, nil
	}

	keys := make([]int, 0, len(bands))
	for k := range bands {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var grid [][]string
	multiCellRows := 0
	for _, k := range keys {
		row := bands[k]
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		cells := clusterWordsToCells(row)
		if len(cells) >= 2 {
			multiCellRows++
		}
		grid = append(grid, cells)
	}

	if multiCellRows < 2 {
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

// clusterWordsToCells merges X-sorted words into cells, splitting on
// horizontal gaps wider than the cell threshold.
func clusterWordsToCells(row []driven.OCRWord) []string {
	var cells []string
	var current []string
	rightEdge := 0

	for i, w := range row {
		if i > 0 && w.X-rightEdge > clusterCellGap {
			cells = append(cells, strings.Join(current, " "))
			current = nil
		}
		current = append(current, strings.TrimSpace(w.Text))
		if w.X+w.W > rightEdge {
			rightEdge = w.X + w.W
		}
	}
	if len(current) > 0 {
		cells = append(cells, strings.Join(current, " "))
	}
	return cells
}
