// Package sheet handles spreadsheet workbooks. Each sheet becomes one
// table unit; merged regions are expanded so every covered cell carries
// the merge value before normalisation.
package sheet

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
	"github.com/nuri-labs/docrag/internal/logger"
	"github.com/nuri-labs/docrag/internal/tabular"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles Excel workbooks.
type Extractor struct{}

// New creates a spreadsheet extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "sheet"
}

// SupportedExtensions returns the handled file extensions.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".xlsx", ".xls"}
}

// Extract decomposes each sheet into a table unit. The sheet's ordinal
// position stands in for the page number.
func (e *Extractor) Extract(_ context.Context, src *driven.SourceFile) ([]domain.Unit, error) {
	f, err := excelize.OpenFile(src.Path)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	defer f.Close()

	var units []domain.Unit
	for i, sheet := range f.GetSheetList() {
		grid, err := sheetGrid(f, sheet)
		if err != nil {
			logger.Warn("Skipping sheet %q: %v", sheet, err)
			continue
		}

		table := tabular.Normalize(grid)
		if table == "" {
			continue
		}
		units = append(units, domain.Unit{
			Text: table,
			Page: i + 1,
			Kind: domain.UnitTable,
		})
	}

	if len(units) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	return units, nil
}

// sheetGrid reads the sheet's cell grid and expands merged regions so
// the forward-fill step sees the merge value in every covered cell.
func sheetGrid(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, err
	}

	for _, merge := range merges {
		startCol, startRow, err := excelize.CellNameToCoordinates(merge.GetStartAxis())
		if err != nil {
			continue
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(merge.GetEndAxis())
		if err != nil {
			continue
		}

		value := strings.TrimSpace(merge.GetCellValue())
		for r := startRow; r <= endRow; r++ {
			for c := startCol; c <= endCol; c++ {
				setCell(&rows, r-1, c-1, value)
			}
		}
	}

	return rows, nil
}

// setCell assigns grid[row][col], growing the ragged grid as needed.
func setCell(grid *[][]string, row, col int, value string) {
	for len(*grid) <= row {
		*grid = append(*grid, nil)
	}
	for len((*grid)[row]) <= col {
		(*grid)[row] = append((*grid)[row], "")
	}
	(*grid)[row][col] = value
}
