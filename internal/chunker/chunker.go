// Package chunker turns the ordered unit list of a decomposed document
// into size-bounded chunks, preserving table integrity.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/logger"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters
// between adjacent text chunks.
const DefaultOverlap = 200

// TableCeilingFactor bounds table chunks at this multiple of the chunk
// size. Tables below the ceiling are never split; above it they are
// split at row boundaries only, repeating the header block.
const TableCeilingFactor = 3

// Chunker splits units into retrieval chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the soft chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between text chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

// Split converts units into chunks. Output order matches input unit
// order; downstream page-ordered reconstruction relies on this.
func (c *Chunker) Split(units []domain.Unit) []domain.Chunk {
	var chunks []domain.Chunk

	for _, unit := range units {
		if unit.Kind == domain.UnitTable {
			chunks = append(chunks, c.splitTable(unit)...)
			continue
		}
		chunks = append(chunks, c.splitText(unit)...)
	}

	tables := 0
	for _, ch := range chunks {
		if ch.HasTable {
			tables++
		}
	}
	logger.Debug("Chunking complete: %d text, %d table chunks", len(chunks)-tables, tables)

	return chunks
}

// splitTable keeps tables whole up to the ceiling; beyond it, splits at
// row boundaries and repeats the header block in every fragment.
// Fragments after the first carry TableContinued.
func (c *Chunker) splitTable(unit domain.Unit) []domain.Chunk {
	ceiling := c.chunkSize * TableCeilingFactor

	if utf8.RuneCountInString(unit.Text) <= ceiling {
		return []domain.Chunk{{
			Text:     unit.Text,
			Page:     unit.Page,
			Kind:     unit.Kind,
			HasTable: true,
		}}
	}

	header, data := splitTableHeader(unit.Text)
	headerText := strings.Join(header, "\n")
	headerLen := utf8.RuneCountInString(headerText)

	var chunks []domain.Chunk
	var current []string
	length := headerLen

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, domain.Chunk{
			Text:           headerText + "\n" + strings.Join(current, "\n"),
			Page:           unit.Page,
			Kind:           unit.Kind,
			HasTable:       true,
			TableContinued: len(chunks) > 0,
		})
		current = nil
		length = headerLen
	}

	for _, line := range data {
		lineLen := utf8.RuneCountInString(line)
		if length+lineLen > c.chunkSize && len(current) > 0 {
			flush()
		}
		current = append(current, line)
		length += lineLen + 1
	}
	flush()

	return chunks
}

// splitTableHeader separates the header block (block markers, the pipe
// header row, and its separator) from the data rows.
func splitTableHeader(text string) (header, data []string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		headerish := strings.HasPrefix(line, "|") ||
			strings.Contains(line, "---") ||
			strings.HasPrefix(line, "[")
		if i < 3 && headerish {
			header = append(header, line)
		} else {
			data = append(data, line)
		}
	}
	return header, data
}

// splitText appends words up to the soft limit, starting each new chunk
// with the trailing words of the previous one to preserve cross-boundary
// context.
func (c *Chunker) splitText(unit domain.Unit) []domain.Chunk {
	if utf8.RuneCountInString(unit.Text) <= c.chunkSize {
		if strings.TrimSpace(unit.Text) == "" {
			return nil
		}
		return []domain.Chunk{{
			Text: unit.Text,
			Page: unit.Page,
			Kind: unit.Kind,
		}}
	}

	words := strings.Fields(unit.Text)
	overlapWords := c.overlap / 10

	var chunks []domain.Chunk
	var current []string
	length := 0

	for _, word := range words {
		wordLen := utf8.RuneCountInString(word) + 1
		if length+wordLen > c.chunkSize && len(current) > 0 {
			chunks = append(chunks, domain.Chunk{
				Text: strings.Join(current, " "),
				Page: unit.Page,
				Kind: unit.Kind,
			})
			if overlapWords > 0 && overlapWords < len(current) {
				current = append([]string(nil), current[len(current)-overlapWords:]...)
			} else {
				current = nil
			}
			length = 0
			for _, w := range current {
				length += utf8.RuneCountInString(w) + 1
			}
		}
		current = append(current, word)
		length += wordLen
	}

	if len(current) > 0 {
		chunks = append(chunks, domain.Chunk{
			Text: strings.Join(current, " "),
			Page: unit.Page,
			Kind: unit.Kind,
		})
	}

	return chunks
}
