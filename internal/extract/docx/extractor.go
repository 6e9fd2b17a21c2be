// Package docx handles Word documents. Body paragraphs become text
// units and tables are normalised into structured table units, in
// document order.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
	"github.com/nuri-labs/docrag/internal/tabular"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "docx"
}

// SupportedExtensions returns the handled file extensions.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".docx"}
}

// Extract opens the archive and decomposes word/document.xml.
// DOCX carries no page geometry, so every unit reports page 1.
func (e *Extractor) Extract(_ context.Context, src *driven.SourceFile) ([]domain.Unit, error) {
	reader, err := zip.OpenReader(src.Path)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	defer reader.Close()

	content, err := readDocumentXML(&reader.Reader)
	if err != nil {
		return nil, err
	}

	units := parseDocumentXML(content)
	if len(units) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	return units, nil
}

// readDocumentXML returns the raw bytes of word/document.xml.
func readDocumentXML(reader *zip.Reader) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, domain.ErrInvalidInput
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, domain.ErrInvalidInput
		}

		return content, nil
	}
	return nil, domain.ErrInvalidInput
}

// documentXML represents the structure of word/document.xml. Body
// children are collected in document order so tables stay interleaved
// with the surrounding paragraphs.
type documentXML struct {
	Body struct {
		Items []bodyItem `xml:",any"`
	} `xml:"body"`
}

// bodyItem is either a paragraph (w:p) or a table (w:tbl); only the
// fields matching the element kind are populated.
type bodyItem struct {
	XMLName xml.Name
	Runs    []run      `xml:"r"`
	Rows    []tableRow `xml:"tr"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

type tableRow struct {
	Cells []tableCell `xml:"tc"`
}

type tableCell struct {
	Paragraphs []bodyItem `xml:"p"`
}

// parseDocumentXML walks the body, batching consecutive paragraphs into
// text units and normalising each table into a table unit.
func parseDocumentXML(content []byte) []domain.Unit {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil
	}

	var units []domain.Unit
	var paragraphs []string

	flushText := func() {
		text := strings.TrimSpace(strings.Join(paragraphs, "\n"))
		paragraphs = nil
		if text == "" {
			return
		}
		units = append(units, domain.Unit{
			Text: text,
			Page: 1,
			Kind: domain.UnitText,
		})
	}

	for _, item := range doc.Body.Items {
		switch item.XMLName.Local {
		case "p":
			paragraphs = append(paragraphs, runText(item.Runs))
		case "tbl":
			flushText()
			if table := normaliseTable(item.Rows); table != "" {
				units = append(units, domain.Unit{
					Text: table,
					Page: 1,
					Kind: domain.UnitTable,
				})
			}
		}
	}
	flushText()

	return units
}

func runText(runs []run) string {
	var b strings.Builder
	for _, r := range runs {
		for _, t := range r.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

// normaliseTable converts a w:tbl into the structured table text form.
func normaliseTable(rows []tableRow) string {
	grid := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			var parts []string
			for _, p := range cell.Paragraphs {
				parts = append(parts, runText(p.Runs))
			}
			cells = append(cells, strings.TrimSpace(strings.Join(parts, " ")))
		}
		grid = append(grid, cells)
	}
	return tabular.Normalize(grid)
}
