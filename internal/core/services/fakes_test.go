package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
)

// fakeRegistry is an in-memory FileRegistry.
type fakeRegistry struct {
	mu   sync.Mutex
	docs map[string]*domain.Document
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{docs: make(map[string]*domain.Document)}
}

func (f *fakeRegistry) Save(_ context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeRegistry) Get(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[id]; ok {
		copied := *doc
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistry) GetByFilename(_ context.Context, filename string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs {
		if doc.OriginalFilename == filename {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistry) List(_ context.Context) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Document, 0, len(f.docs))
	for _, doc := range f.docs {
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OriginalFilename < out[j].OriginalFilename })
	return out, nil
}

func (f *fakeRegistry) ListDocTypes(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make(map[string]bool)
	for _, doc := range f.docs {
		if doc.DocType != "" {
			set[doc.DocType] = true
		}
	}
	out := make([]string, 0, len(set))
	for dt := range set {
		out = append(out, dt)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeRegistry) UpdateDocType(_ context.Context, old, corrected string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := 0
	for _, doc := range f.docs {
		if doc.DocType == old {
			doc.DocType = corrected
			changed++
		}
	}
	return changed, nil
}

func (f *fakeRegistry) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeRegistry) Close() error { return nil }

// fakeFileStore is an in-memory FileStore.
type fakeFileStore struct {
	mu    sync.Mutex
	paths map[string]string
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{paths: make(map[string]string)}
}

func (f *fakeFileStore) Save(id, filename string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := "/uploads/" + id + "_" + filename
	f.paths[id] = path
	return path, nil
}

func (f *fakeFileStore) Path(id string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path, ok := f.paths[id]
	return path, ok
}

func (f *fakeFileStore) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.paths, id)
	return nil
}

// fakeExtractors returns fixed units for any source.
type fakeExtractors struct {
	units []domain.Unit
	err   error
}

func (f *fakeExtractors) Extract(_ context.Context, _ *driven.SourceFile) ([]domain.Unit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.units, nil
}

func (f *fakeExtractors) Register(_ driven.Extractor) {}

func (f *fakeExtractors) SupportedExtensions() []string {
	return []string{".pdf", ".xlsx", ".txt", ".md", ".docx", ".png", ".jpg", ".jpeg", ".xls"}
}

// fakeEmbedder produces deterministic vectors and counts calls.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEmbedder) embed(text string) []float32 {
	v := float32(len(text)%7) + 1
	return []float32{v, v / 2, v / 3}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.embed(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.embed(t)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int               { return 3 }
func (f *fakeEmbedder) ModelName() string             { return "fake-embed" }
func (f *fakeEmbedder) Ping(_ context.Context) error  { return nil }
func (f *fakeEmbedder) Close() error                  { return nil }

// fakeVectorStore is an in-memory VectorStore with filter support.
type fakeVectorStore struct {
	mu      sync.Mutex
	records map[string]driven.Record
	queryFn func(filter domain.RetrievalFilter) []driven.ScoredRecord
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{records: make(map[string]driven.Record)}
}

func (f *fakeVectorStore) Add(_ context.Context, records []driven.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		f.records[r.ID] = r
	}
	return nil
}

func (f *fakeVectorStore) matching(filter domain.RetrievalFilter) []driven.Record {
	var out []driven.Record
	for _, r := range f.records {
		if filter.Matches(metaString(r.Metadata, "filename"), metaString(r.Metadata, "date"), metaString(r.Metadata, "doc_type")) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeVectorStore) Query(_ context.Context, _ []float32, k int, filter domain.RetrievalFilter) ([]driven.ScoredRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryFn != nil {
		return f.queryFn(filter), nil
	}
	var out []driven.ScoredRecord
	for _, r := range f.matching(filter) {
		out = append(out, driven.ScoredRecord{Record: r, Score: 0.9})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (f *fakeVectorStore) Get(_ context.Context, filter domain.RetrievalFilter) ([]driven.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.matching(filter), nil
}

func (f *fakeVectorStore) GetByDocumentID(_ context.Context, documentID string) ([]driven.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []driven.Record
	for _, r := range f.records {
		if metaString(r.Metadata, "document_id") == documentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeVectorStore) UpdateMetadata(_ context.Context, ids []string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		r, ok := f.records[id]
		if !ok {
			continue
		}
		for k, v := range fields {
			r.Metadata[k] = v
		}
		f.records[id] = r
	}
	return nil
}

func (f *fakeVectorStore) Delete(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.records, id)
	}
	return nil
}

func (f *fakeVectorStore) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records), nil
}

func (f *fakeVectorStore) Close() error { return nil }

// fakeLLM replays canned responses and records prompts.
type fakeLLM struct {
	mu          sync.Mutex
	response    string
	err         error
	chatCalls   int
	genCalls    int
	lastSystem  string
	lastUser    string
	lastPrompt  string
}

func (f *fakeLLM) Chat(_ context.Context, system, user string, _ driven.ChatOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls++
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	if strings.Contains(prompt, "INTENT") {
		return "DETAIL", nil
	}
	return f.response, nil
}

func (f *fakeLLM) ModelName() string            { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

// fakePrompts serves fixed templates.
type fakePrompts struct{}

func (fakePrompts) Load(name string) (string, error) {
	switch name {
	case driven.PromptAnswerSystem:
		return "검색된 문서 내용만 사용하여 답변하십시오.", nil
	case driven.PromptAnswerUser:
		return "문서 내용:\n%s\n\n질문: %s", nil
	case driven.PromptIntentClassify:
		return "INTENT %s", nil
	}
	return "", domain.ErrNotFound
}

func (fakePrompts) Reload() {}
