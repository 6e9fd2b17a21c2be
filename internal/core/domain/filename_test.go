package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected ParsedFilename
	}{
		{
			name:     "standard pattern",
			filename: "250211_재직증명서_센싱플러스.pdf",
			expected: ParsedFilename{Date: "250211", DocType: "재직증명서", DocTitle: "센싱플러스", Parsed: true},
		},
		{
			name:     "meeting notes",
			filename: "250420_회의록_프로젝트회의.pdf",
			expected: ParsedFilename{Date: "250420", DocType: "회의록", DocTitle: "프로젝트회의", Parsed: true},
		},
		{
			name:     "title with underscores keeps shortest doc type",
			filename: "250101_견적서_프로젝트_1차.xlsx",
			expected: ParsedFilename{Date: "250101", DocType: "견적서", DocTitle: "프로젝트_1차", Parsed: true},
		},
		{
			name:     "no date prefix",
			filename: "재직증명서_센싱플러스.pdf",
			expected: ParsedFilename{},
		},
		{
			name:     "five digit date does not match",
			filename: "25021_재직증명서_센싱플러스.pdf",
			expected: ParsedFilename{},
		},
		{
			name:     "missing title segment",
			filename: "250211_재직증명서.pdf",
			expected: ParsedFilename{},
		},
		{
			name:     "no extension",
			filename: "250211_회의록_주간회의",
			expected: ParsedFilename{Date: "250211", DocType: "회의록", DocTitle: "주간회의", Parsed: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseFilename(tc.filename))
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2025년 02월 11일", FormatDate("250211"))
	assert.Equal(t, "2502", FormatDate("2502"))
	assert.Equal(t, "25021a", FormatDate("25021a"))
	assert.Equal(t, "", FormatDate(""))
}

func TestDocumentID(t *testing.T) {
	// Identity is deterministic and filename-sensitive.
	a := DocumentID("250211_재직증명서_센싱플러스.pdf")
	b := DocumentID("250211_재직증명서_센싱플러스.pdf")
	c := DocumentID("250211_재직증명서_다른회사.pdf")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "abc_chunk_0", ChunkID("abc", 0))
	assert.Equal(t, "abc_chunk_12", ChunkID("abc", 12))
}

func TestRetrievalFilterMatches(t *testing.T) {
	f := RetrievalFilter{Date: "250211", DocType: "재직증명서"}

	assert.True(t, f.Matches("any.pdf", "250211", "재직증명서"))
	assert.False(t, f.Matches("any.pdf", "250211", "회의록"))
	assert.False(t, f.Matches("any.pdf", "250420", "재직증명서"))
	assert.True(t, RetrievalFilter{}.Matches("x", "y", "z"))
	assert.True(t, RetrievalFilter{}.IsEmpty())
	assert.False(t, f.IsEmpty())
}
