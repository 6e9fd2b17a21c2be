package pdf

import (
	"context"
	"sort"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/tabular"
)

// Geometry thresholds for the native strategy, in PDF points.
const (
	nativeRowTolerance = 3.0
	nativeCellGap      = 12.0
	nativeMinTableRows = 2
)

// nativeLayout extracts tables from the embedded text-positioning
// structure. It only fires on text-based pages that actually contain a
// table; otherwise it returns empty and the cascade continues.
func nativeLayout(_ context.Context, p *pageContext) ([]domain.Unit, error) {
	fragments := p.page.Content().Text
	if len(fragments) == 0 {
		return nil, nil
	}

	rows := clusterRows(fragments)

	// Mark rows with multiple gap-separated cells as table candidates.
	type layoutRow struct {
		cells   []string
		isTable bool
	}
	laid := make([]layoutRow, 0, len(rows))
	for _, row := range rows {
		cells := mergeCells(row)
		laid = append(laid, layoutRow{cells: cells, isTable: len(cells) >= 2})
	}

	// A table block is a run of consecutive multi-cell rows.
	var units []domain.Unit
	var textLines []string
	var grid [][]string
	tableFound := false

	flushText := func() {
		text := strings.TrimSpace(strings.Join(textLines, "\n"))
		textLines = nil
		if text == "" {
			return
		}
		units = append(units, domain.Unit{
			Text: text,
			Page: p.number,
			Kind: domain.UnitText,
		})
	}
	flushGrid := func() {
		if len(grid) < nativeMinTableRows {
			// Too short to be a table; demote to text lines.
			for _, row := range grid {
				textLines = append(textLines, strings.Join(row, " "))
			}
			grid = nil
			return
		}
		flushText()
		if table := tabular.Normalize(grid); table != "" {
			units = append(units, domain.Unit{
				Text: table,
				Page: p.number,
				Kind: domain.UnitTable,
			})
			tableFound = true
		}
		grid = nil
	}

	for _, row := range laid {
		if row.isTable {
			grid = append(grid, row.cells)
			continue
		}
		flushGrid()
		textLines = append(textLines, strings.Join(row.cells, " "))
	}
	flushGrid()
	flushText()

	if !tableFound {
		return nil, nil
	}
	return units, nil
}

// clusterRows groups positioned fragments into visual rows. PDF Y grows
// upward, so rows are ordered by descending Y.
func clusterRows(fragments []ledongthuc.Text) [][]ledongthuc.Text {
	sorted := append([]ledongthuc.Text(nil), fragments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var rows [][]ledongthuc.Text
	for _, frag := range sorted {
		if strings.TrimSpace(frag.S) == "" {
			continue
		}
		n := len(rows)
		if n > 0 && rows[n-1][0].Y-frag.Y <= nativeRowTolerance {
			rows[n-1] = append(rows[n-1], frag)
			continue
		}
		rows = append(rows, []ledongthuc.Text{frag})
	}

	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool {
			return row[i].X < row[j].X
		})
	}
	return rows
}

// mergeCells joins adjacent fragments within a row, starting a new cell
// whenever the horizontal gap exceeds the cell threshold. Fragments are
// often single glyphs, so small gaps concatenate directly and moderate
// gaps become a space.
func mergeCells(row []ledongthuc.Text) []string {
	var cells []string
	var current strings.Builder
	var rightEdge float64

	for i, frag := range row {
		gap := frag.X - rightEdge
		switch {
		case i == 0:
		case gap > nativeCellGap:
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
		case gap > 1.0:
			current.WriteString(" ")
		}
		current.WriteString(frag.S)
		rightEdge = frag.X + frag.W
	}
	if current.Len() > 0 {
		cells = append(cells, strings.TrimSpace(current.String()))
	}

	out := cells[:0]
	for _, c := range cells {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
