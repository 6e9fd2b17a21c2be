package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
	"github.com/nuri-labs/docrag/internal/core/ports/driving"
	"github.com/nuri-labs/docrag/internal/logger"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService reconciles the file registry with the vector store.
// The two can drift when a process dies between registry and index
// writes.
type CatalogService struct {
	registry driven.FileRegistry
	store    driven.VectorStore
	ingest   driving.IngestService
}

// NewCatalogService creates a catalog service.
func NewCatalogService(registry driven.FileRegistry, store driven.VectorStore, ingest driving.IngestService) *CatalogService {
	return &CatalogService{
		registry: registry,
		store:    store,
		ingest:   ingest,
	}
}

// Check reports identities present in only one of the two stores.
func (s *CatalogService) Check(ctx context.Context) (*driving.ReconcileReport, error) {
	logger.Section("Catalog Check")

	docs, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing registry: %w", err)
	}
	registered := make(map[string]bool, len(docs))
	for _, d := range docs {
		registered[d.ID] = true
	}

	records, err := s.store.Get(ctx, domain.RetrievalFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	indexed := make(map[string]bool)
	for _, r := range records {
		if id := metaString(r.Metadata, "document_id"); id != "" {
			indexed[id] = true
		}
	}

	report := &driving.ReconcileReport{}
	for id := range registered {
		if !indexed[id] {
			report.MissingRecords = append(report.MissingRecords, id)
		}
	}
	for id := range indexed {
		if !registered[id] {
			report.OrphanRecords = append(report.OrphanRecords, id)
		}
	}
	sort.Strings(report.MissingRecords)
	sort.Strings(report.OrphanRecords)

	logger.Info("Catalog check: %d missing, %d orphaned", len(report.MissingRecords), len(report.OrphanRecords))
	return report, nil
}

// Repair deletes orphan records and re-indexes registry entries whose
// records are missing. Individual failures are logged and skipped so a
// repair pass always makes as much progress as it can.
func (s *CatalogService) Repair(ctx context.Context) (*driving.ReconcileReport, error) {
	report, err := s.Check(ctx)
	if err != nil {
		return nil, err
	}

	for _, id := range report.OrphanRecords {
		records, err := s.store.GetByDocumentID(ctx, id)
		if err != nil {
			logger.Warn("Could not enumerate orphan %s: %v", id, err)
			continue
		}
		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}
		if err := s.store.Delete(ctx, ids); err != nil {
			logger.Warn("Could not delete orphan %s: %v", id, err)
			continue
		}
		logger.Info("Removed %d orphan records for %s", len(ids), id)
	}

	for _, id := range report.MissingRecords {
		if _, err := s.ingest.Reindex(ctx, id); err != nil {
			logger.Warn("Could not re-index %s: %v", id, err)
		}
	}

	return report, nil
}
