package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
)

func scoredRecord(id, filename string, page int, text string) driven.ScoredRecord {
	return driven.ScoredRecord{
		Record: driven.Record{
			ID:   id,
			Text: text,
			Metadata: map[string]any{
				"document_id": domain.DocumentID(filename),
				"filename":    filename,
				"page":        page,
				"type":        "text",
			},
		},
		Score: 0.9,
	}
}

func TestReduceDropsFilterMismatches(t *testing.T) {
	d := NewDeduplicator()
	records := []driven.ScoredRecord{
		scoredRecord("a_chunk_0", "a.pdf", 1, "첫 번째 본문"),
		scoredRecord("b_chunk_0", "b.pdf", 1, "다른 문서 본문"),
	}

	out := d.Reduce(records, domain.RetrievalFilter{Filename: "a.pdf"})
	require.Len(t, out, 1)
	assert.Equal(t, "a_chunk_0", out[0].record.ID)
}

func TestReduceExactPageDedup(t *testing.T) {
	d := NewDeduplicator()
	records := []driven.ScoredRecord{
		scoredRecord("a_chunk_0", "a.pdf", 1, "페이지 본문 하나"),
		scoredRecord("a_chunk_1", "a.pdf", 1, "완전히 다른 내용의 추가 청크"),
		scoredRecord("a_chunk_2", "a.pdf", 2, "다음 페이지 본문"),
	}

	out := d.Reduce(records, domain.RetrievalFilter{})
	require.Len(t, out, 2)
	assert.Equal(t, "a_chunk_0", out[0].record.ID)
	assert.Equal(t, "a_chunk_2", out[1].record.ID)
}

func TestReduceNearDuplicateThreshold(t *testing.T) {
	d := NewDeduplicator()

	// Identical token sets are duplicates (jaccard 1.0); the near miss
	// shares 9 tokens of a 12-token union (0.75) and is kept.
	base := "가 나 다 라 마 바 사 아 자 차"
	nearMiss := "가 나 다 라 마 바 사 아 자 카 타"

	records := []driven.ScoredRecord{
		scoredRecord("a_chunk_0", "a.pdf", 1, base),
		scoredRecord("a_chunk_1", "a.pdf", 3, base),
		scoredRecord("a_chunk_2", "a.pdf", 5, nearMiss),
	}

	out := d.Reduce(records, domain.RetrievalFilter{})
	require.Len(t, out, 2)
	assert.Equal(t, "a_chunk_0", out[0].record.ID)
	assert.Equal(t, []int{3}, out[0].extraPages, "dropped duplicate's page is recorded")
	assert.Equal(t, "a_chunk_2", out[1].record.ID)
}

func TestJaccardBoundary(t *testing.T) {
	// 9 shared of 10 union: 0.9 exactly, which meets the threshold.
	a := "t1 t2 t3 t4 t5 t6 t7 t8 t9"
	b := "t1 t2 t3 t4 t5 t6 t7 t8 t9 t10"
	assert.InDelta(t, 0.9, jaccard(a, b), 1e-9)

	// 8 shared of 10 union: 0.8, kept as distinct.
	c := "t1 t2 t3 t4 t5 t6 t7 t8 x1 x2"
	assert.Less(t, jaccard(a, c), DefaultJaccardThreshold)
}

func TestReduceTruncatesToBudget(t *testing.T) {
	d := NewDeduplicator()

	var records []driven.ScoredRecord
	for i := 0; i < DefaultMaxContextChunks+10; i++ {
		records = append(records, scoredRecord(
			fmt.Sprintf("a_chunk_%d", i), "a.pdf", i+1,
			fmt.Sprintf("고유한 내용 %d 번째 청크입니다", i)))
	}

	out := d.Reduce(records, domain.RetrievalFilter{})
	assert.Len(t, out, DefaultMaxContextChunks)
}

func TestReduceDocumentKeepsSamePageChunksAndBudget(t *testing.T) {
	d := NewDeduplicator()

	var records []driven.ScoredRecord
	for i := 0; i < DefaultMaxContextChunks+10; i++ {
		records = append(records, scoredRecord(
			fmt.Sprintf("a_chunk_%d", i), "a.pdf", 1,
			fmt.Sprintf("같은 페이지의 고유 본문 %d", i)))
	}

	out := d.ReduceDocument(records, domain.RetrievalFilter{})
	assert.Len(t, out, DefaultMaxContextChunks+10,
		"full-document reassembly keeps every distinct chunk of a page")
}

func TestReduceKeepsShortResultWithoutFailing(t *testing.T) {
	d := NewDeduplicator()
	out := d.Reduce([]driven.ScoredRecord{
		scoredRecord("a_chunk_0", "a.pdf", 1, "단 하나의 청크"),
	}, domain.RetrievalFilter{})
	assert.Len(t, out, 1)
}
