package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
)

type queryFixture struct {
	svc      *QueryService
	registry *fakeRegistry
	store    *fakeVectorStore
	embedder *fakeEmbedder
	llm      *fakeLLM
}

func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()
	registry := newFakeRegistry()
	store := newFakeVectorStore()
	embedder := &fakeEmbedder{}
	llm := &fakeLLM{response: "재직증명서에 따르면 김철수 님은 선임연구원으로 재직 중입니다."}

	f := &queryFixture{
		svc:      NewQueryService(registry, store, embedder, llm, fakePrompts{}),
		registry: registry,
		store:    store,
		embedder: embedder,
		llm:      llm,
	}
	return f
}

// seed indexes one document with the given chunk texts, one per page.
func (f *queryFixture) seed(t *testing.T, filename string, texts ...string) string {
	t.Helper()
	pages := make([]int, len(texts))
	for i := range pages {
		pages[i] = i + 1
	}
	return f.seedPaged(t, filename, pages, texts...)
}

// seedPaged indexes one document with an explicit page per chunk.
func (f *queryFixture) seedPaged(t *testing.T, filename string, pages []int, texts ...string) string {
	t.Helper()
	require.Equal(t, len(pages), len(texts))

	ctx := context.Background()
	id := domain.DocumentID(filename)
	parsed := domain.ParseFilename(filename)

	require.NoError(t, f.registry.Save(ctx, &domain.Document{
		ID:               id,
		OriginalFilename: filename,
		Date:             parsed.Date,
		DocType:          parsed.DocType,
		DocTitle:         parsed.DocTitle,
	}))

	records := make([]driven.Record, len(texts))
	for i, text := range texts {
		records[i] = driven.Record{
			ID:        domain.ChunkID(id, i),
			Embedding: []float32{1, 0, 0},
			Text:      text,
			Metadata: map[string]any{
				"document_id": id,
				"filename":    filename,
				"page":        pages[i],
				"type":        "text",
				"chunk_index": i,
				"date":        parsed.Date,
				"doc_type":    parsed.DocType,
				"doc_title":   parsed.DocTitle,
			},
		}
	}
	require.NoError(t, f.store.Add(ctx, records))
	return id
}

func TestAskDetailWithFilenameFilter(t *testing.T) {
	f := newQueryFixture(t)
	f.seed(t, "250211_재직증명서_센싱플러스.pdf", "김철수 선임연구원 재직 사실을 증명함")
	f.seed(t, "250103_지출결의서_운영비.pdf", "1월 운영비 지출 내역")

	answer, err := f.svc.Ask(context.Background(), "센싱플러스 재직증명서 내용 알려줘")
	require.NoError(t, err)
	assert.True(t, answer.HasAnswer)
	assert.Contains(t, answer.Text, "선임연구원")

	require.Len(t, answer.Sources, 1, "filename filter must exclude the other document")
	assert.Equal(t, "250211_재직증명서_센싱플러스.pdf", answer.Sources[0].Filename)
	assert.Equal(t, 1, answer.Sources[0].Page)

	assert.Contains(t, f.llm.lastUser, "[문서: 250211_재직증명서_센싱플러스.pdf, 페이지: 1]")
	assert.Equal(t, 1, f.embedder.calls)
}

func TestAskGlobalNeverCallsEmbedder(t *testing.T) {
	f := newQueryFixture(t)
	f.seed(t, "250211_재직증명서_센싱플러스.pdf", "본문")
	f.seed(t, "250103_지출결의서_운영비.pdf", "본문")
	f.seed(t, "250104_지출결의서_출장비.pdf", "본문")

	// Generation fails; the aggregate listing itself becomes the answer.
	f.llm.err = errors.New("connection refused")

	answer, err := f.svc.Ask(context.Background(), "등록된 문서가 총 몇 개야?")
	require.NoError(t, err)
	assert.True(t, answer.HasAnswer)
	assert.Contains(t, answer.Text, "총 3개의 문서가 등록되어 있습니다")
	assert.Contains(t, answer.Text, "지출결의서: 2개")
	assert.Contains(t, answer.Text, "재직증명서: 1개")

	assert.Zero(t, f.embedder.calls, "aggregate queries must not touch the embedding service")
}

func TestAskWholeDocumentReassemblesInPageOrder(t *testing.T) {
	f := newQueryFixture(t)
	f.seed(t, "250211_재직증명서_센싱플러스.pdf", "1페이지 본문", "2페이지 본문", "3페이지 본문")

	answer, err := f.svc.Ask(context.Background(), "250211 재직증명서 전체 내용 보여줘")
	require.NoError(t, err)
	assert.True(t, answer.HasAnswer)
	require.Len(t, answer.Sources, 3)
	for i, src := range answer.Sources {
		assert.Equal(t, i+1, src.Page)
	}
	assert.Zero(t, f.embedder.calls, "whole-document mode bypasses similarity search")
}

func TestAskWholeDocumentKeepsAllChunksOfAPage(t *testing.T) {
	f := newQueryFixture(t)
	f.seedPaged(t, "250211_재직증명서_센싱플러스.pdf",
		[]int{1, 1, 2},
		"1페이지 앞부분 본문", "1페이지 뒷부분 추가 본문", "2페이지 본문")

	answer, err := f.svc.Ask(context.Background(), "250211 재직증명서 전체 내용 보여줘")
	require.NoError(t, err)
	assert.True(t, answer.HasAnswer)

	require.Len(t, answer.Sources, 3, "a page split into several chunks keeps them all")
	gotPages := make([]int, len(answer.Sources))
	for i, src := range answer.Sources {
		gotPages[i] = src.Page
	}
	assert.Equal(t, []int{1, 1, 2}, gotPages)
	assert.Contains(t, f.llm.lastUser, "1페이지 뒷부분 추가 본문")
}

func TestAskEmptyIndexReturnsNotFound(t *testing.T) {
	f := newQueryFixture(t)

	answer, err := f.svc.Ask(context.Background(), "아무 내용이나 알려줘")
	require.NoError(t, err)
	assert.False(t, answer.HasAnswer)
	assert.Equal(t, domain.NotFoundAnswer, answer.Text)
}

func TestAskNormalisesRefusalAnswers(t *testing.T) {
	f := newQueryFixture(t)
	f.seed(t, "250211_재직증명서_센싱플러스.pdf", "재직 사실 증명 내용")

	f.llm.response = "죄송하지만 관련 문서가 없습니다."

	answer, err := f.svc.Ask(context.Background(), "연차 규정 내용 알려줘")
	require.NoError(t, err)
	assert.False(t, answer.HasAnswer)
	assert.Equal(t, domain.NotFoundAnswer, answer.Text)
}

func TestAskNormalisesTooShortAnswers(t *testing.T) {
	f := newQueryFixture(t)
	f.seed(t, "250211_재직증명서_센싱플러스.pdf", "재직 사실 증명 내용")

	f.llm.response = "네."

	answer, err := f.svc.Ask(context.Background(), "재직증명서 내용 요약해줘")
	require.NoError(t, err)
	assert.False(t, answer.HasAnswer)
	assert.Equal(t, domain.NotFoundAnswer, answer.Text)
}

func TestAskDegradesWhenLLMUnavailable(t *testing.T) {
	f := newQueryFixture(t)
	f.seed(t, "250211_재직증명서_센싱플러스.pdf", "재직 사실 증명 내용")

	f.llm.err = errors.New("model not found")

	answer, err := f.svc.Ask(context.Background(), "재직증명서 내용 알려줘")
	require.NoError(t, err, "generation failure degrades, never errors")
	assert.False(t, answer.HasAnswer)
	assert.Equal(t, unavailableAnswer, answer.Text)
	assert.NotEmpty(t, answer.Sources, "retrieved sources still accompany the degraded answer")
}

func TestAskRejectsEmptyQuery(t *testing.T) {
	f := newQueryFixture(t)
	_, err := f.svc.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
