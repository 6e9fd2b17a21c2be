package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nuri-labs/docrag/internal/chunker"
	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
	"github.com/nuri-labs/docrag/internal/core/ports/driving"
	"github.com/nuri-labs/docrag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the upload pipeline: validate, store, decompose,
// chunk, embed, index, register.
type IngestService struct {
	registry   driven.FileRegistry
	files      driven.FileStore
	extractors driven.ExtractorRegistry
	chunker    *chunker.Chunker
	embedder   driven.EmbeddingService
	store      driven.VectorStore
}

// NewIngestService creates an ingest service.
func NewIngestService(
	registry driven.FileRegistry,
	files driven.FileStore,
	extractors driven.ExtractorRegistry,
	ch *chunker.Chunker,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
) *IngestService {
	return &IngestService{
		registry:   registry,
		files:      files,
		extractors: extractors,
		chunker:    ch,
		embedder:   embedder,
		store:      store,
	}
}

// Upload ingests one file end to end. The identity is derived from the
// original filename, so re-uploading the same name is rejected as a
// duplicate rather than silently re-indexed.
func (s *IngestService) Upload(ctx context.Context, filename string, content []byte) (*driving.UploadResult, error) {
	logger.Section("Upload")
	logger.Info("File: %s (%d bytes)", filename, len(content))

	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(content) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	if !s.supported(filename) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(filename))
	}

	if existing, err := s.registry.GetByFilename(ctx, filename); err == nil {
		logger.Info("Duplicate upload rejected: %s is %s", filename, existing.ID)
		return nil, &domain.DuplicateError{Filename: filename, ExistingID: existing.ID}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	id := domain.DocumentID(filename)
	path, err := s.files.Save(id, filename, content)
	if err != nil {
		return nil, fmt.Errorf("storing file: %w", err)
	}

	parsed := domain.ParseFilename(filename)
	doc := &domain.Document{
		ID:               id,
		OriginalFilename: filename,
		StoredPath:       path,
		Size:             int64(len(content)),
		Date:             parsed.Date,
		DocType:          parsed.DocType,
		DocTitle:         parsed.DocTitle,
		CreatedAt:        time.Now(),
	}

	count, err := s.index(ctx, doc)
	if err != nil {
		// Roll back the stored file so a failed upload leaves no trace.
		if cleanupErr := s.files.Delete(id); cleanupErr != nil {
			logger.Warn("Cleanup after failed index: %v", cleanupErr)
		}
		return nil, err
	}

	if err := s.registry.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("registering document: %w", err)
	}

	logger.Info("Indexed %s as %s (%d chunks)", filename, id, count)
	return &driving.UploadResult{
		DocumentID: id,
		Filename:   filename,
		ChunkCount: count,
	}, nil
}

// index decomposes, chunks, embeds, and writes records for a document.
// Old records under the same identity are removed first, keeping
// re-indexing atomic from the caller's perspective.
func (s *IngestService) index(ctx context.Context, doc *domain.Document) (int, error) {
	units, err := s.extractors.Extract(ctx, &driven.SourceFile{
		Path:         doc.StoredPath,
		OriginalName: doc.OriginalFilename,
	})
	if err != nil {
		return 0, fmt.Errorf("extracting %s: %w", doc.OriginalFilename, err)
	}

	chunks := s.chunker.Split(units)
	if len(chunks) == 0 {
		return 0, domain.ErrEmptyDocument
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(embeddings))
	}

	// Failure to locate old records is non-fatal; the new records are
	// still written and the residual-duplicate risk is accepted.
	if old, err := s.store.GetByDocumentID(ctx, doc.ID); err != nil {
		logger.Warn("Could not enumerate old records for %s: %v", doc.ID, err)
	} else if len(old) > 0 {
		ids := make([]string, len(old))
		for i, r := range old {
			ids[i] = r.ID
		}
		if err := s.store.Delete(ctx, ids); err != nil {
			logger.Warn("Could not delete old records for %s: %v", doc.ID, err)
		}
	}

	records := make([]driven.Record, len(chunks))
	for i, ch := range chunks {
		records[i] = driven.Record{
			ID:        domain.ChunkID(doc.ID, i),
			Embedding: embeddings[i],
			Text:      ch.Text,
			Metadata: map[string]any{
				"document_id":     doc.ID,
				"filename":        doc.OriginalFilename,
				"page":            ch.Page,
				"type":            string(ch.Kind),
				"chunk_index":     i,
				"has_table":       ch.HasTable,
				"table_continued": ch.TableContinued,
				"date":            doc.Date,
				"doc_type":        doc.DocType,
				"doc_title":       doc.DocTitle,
			},
		}
	}

	if err := s.store.Add(ctx, records); err != nil {
		return 0, fmt.Errorf("indexing records: %w", err)
	}
	return len(records), nil
}

// Delete removes a document by identity, falling back to filename
// lookup, then to the derived path identity, stopping at the first
// interpretation that matches anything.
func (s *IngestService) Delete(ctx context.Context, id string) (int, error) {
	logger.Section("Delete")

	doc, err := s.registry.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		// The argument may be an original filename.
		doc, err = s.registry.GetByFilename(ctx, id)
	}
	if errors.Is(err, domain.ErrNotFound) {
		// Last resort: treat the argument as a filename whose identity was
		// never registered.
		derived := domain.DocumentID(id)
		doc, err = s.registry.Get(ctx, derived)
	}
	if err != nil {
		return 0, err
	}

	removed, err := s.removeRecords(ctx, doc)
	if err != nil {
		return 0, err
	}

	if err := s.files.Delete(doc.ID); err != nil {
		logger.Warn("Could not remove stored file for %s: %v", doc.ID, err)
	}
	if err := s.registry.Delete(ctx, doc.ID); err != nil {
		return removed, err
	}

	logger.Info("Deleted %s (%d records)", doc.OriginalFilename, removed)
	return removed, nil
}

// removeRecords deletes the document's vector records by identity,
// falling back to a filename metadata match when the identity lookup
// fails.
func (s *IngestService) removeRecords(ctx context.Context, doc *domain.Document) (int, error) {
	records, err := s.store.GetByDocumentID(ctx, doc.ID)
	if err != nil || len(records) == 0 {
		records, err = s.store.Get(ctx, domain.RetrievalFilter{Filename: doc.OriginalFilename})
		if err != nil {
			return 0, fmt.Errorf("locating records: %w", err)
		}
	}
	if len(records) == 0 {
		return 0, nil
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	if err := s.store.Delete(ctx, ids); err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}
	return len(ids), nil
}

// Reindex re-runs decomposition and indexing for a registered document
// from its stored bytes.
func (s *IngestService) Reindex(ctx context.Context, id string) (*driving.UploadResult, error) {
	logger.Section("Reindex")

	doc, err := s.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if path, ok := s.files.Path(doc.ID); ok {
		doc.StoredPath = path
	}

	count, err := s.index(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Save(ctx, doc); err != nil {
		return nil, err
	}

	logger.Info("Reindexed %s (%d chunks)", doc.OriginalFilename, count)
	return &driving.UploadResult{
		DocumentID: doc.ID,
		Filename:   doc.OriginalFilename,
		ChunkCount: count,
	}, nil
}

// List returns registered files with optional doc-type and date
// filtering, plus corpus statistics over the unfiltered registry.
func (s *IngestService) List(ctx context.Context, docType, date string) ([]driving.FileInfo, driving.CorpusStats, error) {
	docs, err := s.registry.List(ctx)
	if err != nil {
		return nil, driving.CorpusStats{}, err
	}

	stats := driving.CorpusStats{
		TotalCount: len(docs),
		ByDocType:  make(map[string]int),
	}
	files := make([]driving.FileInfo, 0, len(docs))
	for _, doc := range docs {
		if doc.DocType != "" {
			stats.ByDocType[doc.DocType]++
		}
		if docType != "" && doc.DocType != docType {
			continue
		}
		if date != "" && doc.Date != date {
			continue
		}
		files = append(files, driving.FileInfo{
			ID:         doc.ID,
			Filename:   doc.OriginalFilename,
			Size:       doc.Size,
			Date:       doc.Date,
			DocType:    doc.DocType,
			DocTitle:   doc.DocTitle,
			StoredPath: doc.StoredPath,
		})
	}
	return files, stats, nil
}

// CorrectDocType rewrites a parsed doc-type value across the registry
// and the vector store metadata.
func (s *IngestService) CorrectDocType(ctx context.Context, old, corrected string) (int, error) {
	logger.Section("DocType Correction")

	old = strings.TrimSpace(old)
	corrected = strings.TrimSpace(corrected)
	if old == "" || corrected == "" || old == corrected {
		return 0, domain.ErrInvalidInput
	}

	changed, err := s.registry.UpdateDocType(ctx, old, corrected)
	if err != nil {
		return 0, err
	}

	records, err := s.store.Get(ctx, domain.RetrievalFilter{DocType: old})
	if err != nil {
		return changed, fmt.Errorf("locating records for doc type %q: %w", old, err)
	}
	if len(records) > 0 {
		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}
		if err := s.store.UpdateMetadata(ctx, ids, map[string]any{"doc_type": corrected}); err != nil {
			return changed, fmt.Errorf("updating record metadata: %w", err)
		}
	}

	logger.Info("Doc type %q -> %q: %d registry entries, %d records", old, corrected, changed, len(records))
	return changed, nil
}

// supported reports whether the filename's extension has a registered
// extractor.
func (s *IngestService) supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, supported := range s.extractors.SupportedExtensions() {
		if ext == supported {
			return true
		}
	}
	return false
}
