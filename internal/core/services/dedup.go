package services

import (
	"strings"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
	"github.com/nuri-labs/docrag/internal/logger"
)

// Context budget defaults.
const (
	// DefaultJaccardThreshold is the token-set similarity above which two
	// chunks count as near-duplicates.
	DefaultJaccardThreshold = 0.9

	// DefaultMaxContextChunks caps the chunks handed to generation.
	DefaultMaxContextChunks = 30

	// DefaultMinContextChunks is the point below which the shortfall is
	// logged. The query still proceeds with whatever is available.
	DefaultMinContextChunks = 15
)

// contextChunk is a retrieval result that survived reduction, plus the
// pages of near-duplicates that were dropped in its favour.
type contextChunk struct {
	record     driven.ScoredRecord
	extraPages []int
}

// Deduplicator reduces a retrieval result to a bounded, duplicate-free
// context set.
type Deduplicator struct {
	jaccardThreshold float64
	maxChunks        int
	minChunks        int
}

// NewDeduplicator creates a deduplicator with the default budget.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		jaccardThreshold: DefaultJaccardThreshold,
		maxChunks:        DefaultMaxContextChunks,
		minChunks:        DefaultMinContextChunks,
	}
}

// Reduce applies the three reduction stages in order: metadata filter
// re-check, exact (filename, page) dedup, then near-duplicate dedup by
// token-set similarity. The first-seen chunk of a duplicate cluster is
// kept; later duplicates are dropped but their pages are recorded for
// citation completeness. The result is truncated to the budget.
func (d *Deduplicator) Reduce(records []driven.ScoredRecord, filter domain.RetrievalFilter) []contextChunk {
	filtered := d.applyFilter(records, filter)
	exact := d.dropExactPages(filtered)
	reduced := d.dropNearDuplicates(exact)

	if len(reduced) > d.maxChunks {
		reduced = reduced[:d.maxChunks]
	}
	if len(reduced) < d.minChunks {
		logger.Debug("Context below minimum: %d of %d chunks", len(reduced), d.minChunks)
	}
	return reduced
}

// ReduceDocument reduces a full-document fetch. Pages routinely split
// into several chunks and every one of them belongs in the reassembly,
// so the exact-page stage and the context budget do not apply; only
// the filter re-check and near-duplicate collapse run.
func (d *Deduplicator) ReduceDocument(records []driven.ScoredRecord, filter domain.RetrievalFilter) []contextChunk {
	filtered := d.applyFilter(records, filter)
	return d.dropNearDuplicates(filtered)
}

// applyFilter re-checks each record's metadata against the active
// filter. The store already filtered server-side; this guards against
// stale or malformed metadata slipping through.
func (d *Deduplicator) applyFilter(records []driven.ScoredRecord, filter domain.RetrievalFilter) []driven.ScoredRecord {
	if filter.IsEmpty() {
		return records
	}
	out := records[:0:0]
	for _, r := range records {
		if filter.Matches(metaString(r.Metadata, "filename"), metaString(r.Metadata, "date"), metaString(r.Metadata, "doc_type")) {
			out = append(out, r)
		}
	}
	return out
}

// dropExactPages removes later records sharing a (filename, page) key.
func (d *Deduplicator) dropExactPages(records []driven.ScoredRecord) []driven.ScoredRecord {
	type pageKey struct {
		filename string
		page     int
	}
	seen := make(map[pageKey]bool, len(records))
	out := records[:0:0]
	for _, r := range records {
		key := pageKey{
			filename: metaString(r.Metadata, "filename"),
			page:     metaInt(r.Metadata, "page"),
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// dropNearDuplicates keeps the first chunk of each similarity cluster
// and records dropped pages against it.
func (d *Deduplicator) dropNearDuplicates(records []driven.ScoredRecord) []contextChunk {
	var kept []contextChunk

	for _, r := range records {
		duplicateOf := -1
		for i, k := range kept {
			if jaccard(k.record.Text, r.Text) >= d.jaccardThreshold {
				duplicateOf = i
				break
			}
		}

		if duplicateOf < 0 {
			kept = append(kept, contextChunk{record: r})
			continue
		}

		page := metaInt(r.Metadata, "page")
		keptPage := metaInt(kept[duplicateOf].record.Metadata, "page")
		if page != keptPage && !containsInt(kept[duplicateOf].extraPages, page) {
			kept[duplicateOf].extraPages = append(kept[duplicateOf].extraPages, page)
		}
	}
	return kept
}

// jaccard computes token-set similarity between two texts.
func jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// metaString reads a string metadata field, tolerating absence.
func metaString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// metaInt reads an integer metadata field. JSON round-trips deliver
// numbers as float64, so both forms are accepted.
func metaInt(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// metaBool reads a boolean metadata field.
func metaBool(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}
