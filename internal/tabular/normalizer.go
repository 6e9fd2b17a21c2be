// Package tabular converts raw cell grids into the canonical table text
// used everywhere downstream: a hierarchy-preserving line form for merged
// and spanned cells, followed by a literal table grid for reference.
package tabular

import (
	"fmt"
	"strings"
)

// Block markers in the canonical output. The hierarchical block is what
// retrieval feeds the language model; the literal block keeps the
// original grid available for audit.
const (
	hierarchyMarker = "[계층형 표 데이터]"
	literalMarker   = "[표 원본]"
)

// unitTokens mark a cell as a value rather than a category even when it
// carries no digit.
var unitTokens = []string{"원", "%", "개", "건", "명", "일", "시간"}

// Normalize turns a rectangular grid of raw cell strings into the
// canonical two-block table text. Empty cells inherit the nearest
// non-empty value above them in the same column, modelling merged cells.
// The result is deterministic for a given input grid.
func Normalize(grid [][]string) string {
	cleaned := cleanGrid(grid)
	if len(cleaned) == 0 {
		return ""
	}

	maxCols := padRows(cleaned)
	forwardFill(cleaned, maxCols)
	cleaned, maxCols = dropEmptyColumns(cleaned, maxCols)
	if maxCols == 0 {
		return ""
	}

	headers := headerRow(cleaned[0], maxCols)

	var out []string
	out = append(out, hierarchyMarker)
	out = append(out, hierarchyLines(cleaned[1:], headers)...)
	out = append(out, "")
	out = append(out, literalMarker)
	out = append(out, literalLines(cleaned, headers, maxCols)...)

	return strings.Join(out, "\n")
}

// cleanGrid strips embedded newlines, collapses whitespace, and drops
// rows that are empty in every cell.
func cleanGrid(grid [][]string) [][]string {
	cleaned := make([][]string, 0, len(grid))
	for _, row := range grid {
		any := false
		cleanedRow := make([]string, len(row))
		for i, cell := range row {
			c := strings.ReplaceAll(cell, "\n", " ")
			c = strings.Join(strings.Fields(c), " ")
			cleanedRow[i] = c
			if c != "" {
				any = true
			}
		}
		if any {
			cleaned = append(cleaned, cleanedRow)
		}
	}
	return cleaned
}

// padRows extends every row to the grid's maximum column count and
// returns that count.
func padRows(grid [][]string) int {
	maxCols := 0
	for _, row := range grid {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	for i, row := range grid {
		for len(row) < maxCols {
			row = append(row, "")
		}
		grid[i] = row
	}
	return maxCols
}

// forwardFill replaces each empty cell with the nearest non-empty value
// above it within the same column. The first row never inherits.
func forwardFill(grid [][]string, maxCols int) {
	for col := 0; col < maxCols; col++ {
		last := ""
		for row := 0; row < len(grid); row++ {
			if grid[row][col] != "" {
				last = grid[row][col]
			} else if last != "" && row > 0 {
				grid[row][col] = last
			}
		}
	}
}

// dropEmptyColumns removes columns that are empty in every row after the
// fill pass.
func dropEmptyColumns(grid [][]string, maxCols int) ([][]string, int) {
	keep := make([]int, 0, maxCols)
	for col := 0; col < maxCols; col++ {
		for _, row := range grid {
			if strings.TrimSpace(row[col]) != "" {
				keep = append(keep, col)
				break
			}
		}
	}
	if len(keep) == maxCols {
		return grid, maxCols
	}
	out := make([][]string, len(grid))
	for i, row := range grid {
		kept := make([]string, len(keep))
		for j, col := range keep {
			kept[j] = row[col]
		}
		out[i] = kept
	}
	return out, len(keep)
}

// headerRow treats the first row as headers, synthesising "colN" for any
// still-empty header cell.
func headerRow(first []string, maxCols int) []string {
	headers := make([]string, maxCols)
	for i := 0; i < maxCols; i++ {
		h := strings.TrimSpace(first[i])
		if h == "" {
			h = fmt.Sprintf("col%d", i+1)
		}
		headers[i] = h
	}
	return headers
}

// isValueCell decides whether a cell is a value rather than a hierarchy
// category: the last two columns, any cell containing a digit, or any
// cell carrying a unit token.
func isValueCell(cell string, col, rowLen int) bool {
	if col >= rowLen-2 {
		return true
	}
	for _, r := range cell {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	for _, unit := range unitTokens {
		if strings.Contains(cell, unit) {
			return true
		}
	}
	return false
}

// hierarchyLines renders each data row as
// "  - h1 > h2 > ... >> header: value, header: value".
func hierarchyLines(rows [][]string, headers []string) []string {
	var lines []string
	for _, row := range rows {
		var hierarchy, values []string
		for col, cell := range row {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			header := fmt.Sprintf("col%d", col+1)
			if col < len(headers) {
				header = headers[col]
			}
			if isValueCell(cell, col, len(row)) && len(hierarchy) > 0 {
				values = append(values, header+": "+cell)
			} else {
				hierarchy = append(hierarchy, cell)
			}
		}

		switch {
		case len(hierarchy) > 0 && len(values) > 0:
			lines = append(lines, "  - "+strings.Join(hierarchy, " > ")+" >> "+strings.Join(values, ", "))
		case len(hierarchy) > 0:
			lines = append(lines, "  - "+strings.Join(hierarchy, " > "))
		case len(values) > 0:
			lines = append(lines, "  - "+strings.Join(values, ", "))
		}
	}
	return lines
}

// literalLines renders the full grid as a pipe table for reference.
func literalLines(grid [][]string, headers []string, maxCols int) []string {
	lines := make([]string, 0, len(grid)+1)
	lines = append(lines, "| "+strings.Join(headers, " | ")+" |")

	sep := make([]string, maxCols)
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, "| "+strings.Join(sep, " | ")+" |")

	for _, row := range grid[1:] {
		escaped := make([]string, len(row))
		for i, cell := range row {
			escaped[i] = strings.ReplaceAll(cell, "|", "\\|")
		}
		lines = append(lines, "| "+strings.Join(escaped, " | ")+" |")
	}
	return lines
}
