package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
	"github.com/nuri-labs/docrag/internal/core/ports/driving"
	"github.com/nuri-labs/docrag/internal/logger"
)

// Retrieval and generation defaults.
const (
	// DefaultTopK is the nearest-neighbour request size, capped by the
	// total indexed record count.
	DefaultTopK = 40

	// answerMaxTokens bounds generated answer length.
	answerMaxTokens = 1000

	// answerTemperature keeps generation close to the retrieved context.
	answerTemperature = 0.1

	// answerTopP is the nucleus sampling cutoff for answers.
	answerTopP = 0.9

	// minAnswerRunes is the grounding validator's length floor; shorter
	// generations are treated as refusals.
	minAnswerRunes = 10

	// sourcePreviewRunes bounds the text echoed back in citations.
	sourcePreviewRunes = 200
)

// Refusal markers the grounding validator scans for in generated text.
var refusalMarkers = []string{
	"지식 베이스에 없는 내용",
	"관련 문서가 없습니다",
}

// unavailableAnswer is returned when the generation provider cannot be
// reached. The query degrades, it does not fail.
const unavailableAnswer = "답변 생성 서비스에 연결할 수 없습니다. Ollama 서버 상태를 확인해 주세요."

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService answers natural-language questions over the indexed
// corpus: classify intent, compose a metadata filter, retrieve, reduce,
// generate, validate grounding.
type QueryService struct {
	registry   driven.FileRegistry
	store      driven.VectorStore
	embedder   driven.EmbeddingService
	llm        driven.LLMService
	prompts    driven.PromptStore
	classifier *IntentClassifier
	dedup      *Deduplicator
	topK       int
}

// NewQueryService creates a query service.
func NewQueryService(
	registry driven.FileRegistry,
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	prompts driven.PromptStore,
) *QueryService {
	return &QueryService{
		registry:   registry,
		store:      store,
		embedder:   embedder,
		llm:        llm,
		prompts:    prompts,
		classifier: NewIntentClassifier(llm, prompts),
		dedup:      NewDeduplicator(),
		topK:       DefaultTopK,
	}
}

// Ask answers one question. Aggregate questions are answered from the
// catalog without touching the similarity index; detail questions go
// through filtered nearest-neighbour retrieval.
func (s *QueryService) Ask(ctx context.Context, query string) (*domain.Answer, error) {
	logger.Section("Query")
	logger.Info("Question: %s", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidInput
	}

	docs, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	filenames := make([]string, len(docs))
	docTypeSet := make(map[string]bool)
	for i, d := range docs {
		filenames[i] = d.OriginalFilename
		if d.DocType != "" {
			docTypeSet[d.DocType] = true
		}
	}
	docTypes := make([]string, 0, len(docTypeSet))
	for dt := range docTypeSet {
		docTypes = append(docTypes, dt)
	}
	sort.Strings(docTypes)

	intent := s.classifier.Classify(ctx, query, filenames, docTypes)

	if intent.Class == domain.IntentGlobal {
		return s.answerGlobal(ctx, query)
	}
	if intent.WholeDocument {
		return s.answerWholeDocument(ctx, query, intent)
	}
	return s.answerDetail(ctx, query, intent)
}

// answerGlobal builds a factual catalog listing and hands it to
// generation as the entire context. No embedding call, no
// nearest-neighbour search. If generation fails, the listing itself is
// the answer.
func (s *QueryService) answerGlobal(ctx context.Context, query string) (*domain.Answer, error) {
	records, err := s.store.Get(ctx, domain.RetrievalFilter{})
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	listing := catalogListing(records)
	if listing == "" {
		return &domain.Answer{Text: domain.NotFoundAnswer, HasAnswer: false}, nil
	}

	text, err := s.generate(ctx, listing, query)
	if err != nil {
		logger.Warn("Generation failed for aggregate query, returning listing: %v", err)
		return &domain.Answer{Text: listing, HasAnswer: true}, nil
	}
	return s.validated(text, nil), nil
}

// catalogListing aggregates records into a deterministic corpus summary
// grouped by document identity.
func catalogListing(records []driven.Record) string {
	type docEntry struct {
		filename string
		docType  string
	}
	byID := make(map[string]docEntry)
	for _, r := range records {
		id := metaString(r.Metadata, "document_id")
		if id == "" {
			continue
		}
		if _, ok := byID[id]; !ok {
			byID[id] = docEntry{
				filename: metaString(r.Metadata, "filename"),
				docType:  metaString(r.Metadata, "doc_type"),
			}
		}
	}
	if len(byID) == 0 {
		return ""
	}

	byType := make(map[string]int)
	filenames := make([]string, 0, len(byID))
	for _, e := range byID {
		filenames = append(filenames, e.filename)
		key := e.docType
		if key == "" {
			key = "기타"
		}
		byType[key]++
	}
	sort.Strings(filenames)

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	var b strings.Builder
	fmt.Fprintf(&b, "총 %d개의 문서가 등록되어 있습니다.\n\n", len(byID))
	b.WriteString("문서 유형별 개수:\n")
	for _, t := range types {
		fmt.Fprintf(&b, "- %s: %d개\n", t, byType[t])
	}
	b.WriteString("\n문서 목록:\n")
	for _, f := range filenames {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return b.String()
}

// answerWholeDocument fetches every record matching the metadata filter
// and reassembles them in page order, bypassing similarity ranking.
func (s *QueryService) answerWholeDocument(ctx context.Context, query string, intent *domain.QueryIntent) (*domain.Answer, error) {
	filter := composeFilter(intent)
	logger.Debug("Whole-document mode, filter: %+v", filter)

	records, err := s.store.Get(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fetching document records: %w", err)
	}
	if len(records) == 0 {
		return &domain.Answer{Text: domain.NotFoundAnswer, HasAnswer: false}, nil
	}

	sort.SliceStable(records, func(i, j int) bool {
		pi, pj := metaInt(records[i].Metadata, "page"), metaInt(records[j].Metadata, "page")
		if pi != pj {
			return pi < pj
		}
		return metaInt(records[i].Metadata, "chunk_index") < metaInt(records[j].Metadata, "chunk_index")
	})

	scored := make([]driven.ScoredRecord, len(records))
	for i, r := range records {
		scored[i] = driven.ScoredRecord{Record: r}
	}
	chunks := s.dedup.ReduceDocument(scored, filter)

	text, err := s.generate(ctx, assembleContext(chunks), query)
	if err != nil {
		return &domain.Answer{Text: unavailableAnswer, Sources: sourcesFrom(chunks), HasAnswer: false}, nil
	}
	return s.validated(text, chunks), nil
}

// answerDetail runs filtered nearest-neighbour retrieval.
func (s *QueryService) answerDetail(ctx context.Context, query string, intent *domain.QueryIntent) (*domain.Answer, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	if total == 0 {
		return &domain.Answer{Text: domain.NotFoundAnswer, HasAnswer: false}, nil
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	filter := composeFilter(intent)
	k := s.topK
	if total < k {
		k = total
	}

	scored, err := s.store.Query(ctx, embedding, k, filter)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	chunks := s.dedup.Reduce(scored, filter)
	if len(chunks) == 0 {
		return &domain.Answer{Text: domain.NotFoundAnswer, HasAnswer: false}, nil
	}

	text, err := s.generate(ctx, assembleContext(chunks), query)
	if err != nil {
		return &domain.Answer{Text: unavailableAnswer, Sources: sourcesFrom(chunks), HasAnswer: false}, nil
	}
	return s.validated(text, chunks), nil
}

// composeFilter builds the retrieval filter from matched entities with
// strict precedence: filename, then date plus doc type, then date, then
// doc type, then none.
func composeFilter(intent *domain.QueryIntent) domain.RetrievalFilter {
	switch {
	case intent.MatchedFilename != "":
		return domain.RetrievalFilter{Filename: intent.MatchedFilename}
	case intent.MatchedDate != "" && intent.MatchedDocType != "":
		return domain.RetrievalFilter{Date: intent.MatchedDate, DocType: intent.MatchedDocType}
	case intent.MatchedDate != "":
		return domain.RetrievalFilter{Date: intent.MatchedDate}
	case intent.MatchedDocType != "":
		return domain.RetrievalFilter{DocType: intent.MatchedDocType}
	}
	return domain.RetrievalFilter{}
}

// assembleContext renders the reduced chunks as the generation context,
// each headed by its citation line.
func assembleContext(chunks []contextChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[문서: %s, 페이지: %d]\n%s",
			metaString(c.record.Metadata, "filename"),
			metaInt(c.record.Metadata, "page"),
			c.record.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// generate renders the answer prompts and calls the provider.
func (s *QueryService) generate(ctx context.Context, contextText, query string) (string, error) {
	system, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", err
	}
	userTemplate, err := s.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return "", err
	}

	return s.llm.Chat(ctx, system, fmt.Sprintf(userTemplate, contextText, query), driven.ChatOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
		TopP:        answerTopP,
	})
}

// validated applies the grounding heuristic: refusal markers or a
// too-short generation normalise to the canonical not-found answer.
func (s *QueryService) validated(text string, chunks []contextChunk) *domain.Answer {
	trimmed := strings.TrimSpace(text)

	refused := len([]rune(trimmed)) < minAnswerRunes
	for _, marker := range refusalMarkers {
		if strings.Contains(trimmed, marker) {
			refused = true
			break
		}
	}
	if refused {
		return &domain.Answer{Text: domain.NotFoundAnswer, HasAnswer: false}
	}

	return &domain.Answer{
		Text:      trimmed,
		Sources:   sourcesFrom(chunks),
		HasAnswer: true,
	}
}

// sourcesFrom converts kept chunks into citations with bounded text
// previews.
func sourcesFrom(chunks []contextChunk) []domain.Source {
	sources := make([]domain.Source, 0, len(chunks))
	for _, c := range chunks {
		preview := c.record.Text
		if runes := []rune(preview); len(runes) > sourcePreviewRunes {
			preview = string(runes[:sourcePreviewRunes])
		}
		sources = append(sources, domain.Source{
			Filename:   metaString(c.record.Metadata, "filename"),
			Page:       metaInt(c.record.Metadata, "page"),
			Kind:       metaString(c.record.Metadata, "type"),
			Text:       preview,
			ExtraPages: c.extraPages,
		})
	}
	return sources
}
