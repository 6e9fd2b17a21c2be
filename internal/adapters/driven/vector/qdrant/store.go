// Package qdrant provides a vector store adapter backed by Qdrant's
// REST API.
//
// Qdrant point ids must be UUIDs or unsigned integers, so the logical
// record id "{document_id}_chunk_{index}" is mapped to a deterministic
// UUID and kept verbatim in the payload for reads and deletes.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:6333"
	DefaultCollection = "documents"
	DefaultTimeout    = 30 * time.Second

	// scrollPageSize is the page size for unranked reads.
	scrollPageSize = 256
)

// payloadIDKey carries the logical record id inside the point payload.
const payloadIDKey = "_id"

// pointNamespace seeds the deterministic logical-id to point-id mapping.
var pointNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Config holds configuration for the Qdrant store.
type Config struct {
	// BaseURL is the Qdrant REST endpoint (default: http://localhost:6333).
	BaseURL string

	// Collection is the collection name (default: documents).
	Collection string

	// Dimensions is the vector size; must match the embedding model.
	Dimensions int

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Store talks to one Qdrant collection.
type Store struct {
	client     *http.Client
	baseURL    string
	collection string
	dimensions int
}

// New creates a Qdrant store. Call EnsureCollection before first use.
func New(cfg Config) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
	}
}

// pointID maps a logical record id to a stable Qdrant point id.
func pointID(recordID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(recordID)).String()
}

// EnsureCollection creates the collection if it does not exist.
func (s *Store) EnsureCollection(ctx context.Context) error {
	status, _, err := s.do(ctx, http.MethodGet, "/collections/"+s.collection, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if status == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimensions,
			"distance": "Cosine",
		},
	}
	status, respBody, err := s.do(ctx, http.MethodPut, "/collections/"+s.collection, body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("creating collection (status %d): %s", status, respBody)
	}
	return nil
}

// Add upserts records with wait=true so reads after a write see it.
func (s *Store) Add(ctx context.Context, records []driven.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]map[string]any, len(records))
	for i, r := range records {
		payload := make(map[string]any, len(r.Metadata)+2)
		for k, v := range r.Metadata {
			payload[k] = v
		}
		payload[payloadIDKey] = r.ID
		payload["text"] = r.Text

		points[i] = map[string]any{
			"id":      pointID(r.ID),
			"vector":  r.Embedding,
			"payload": payload,
		}
	}

	status, body, err := s.do(ctx, http.MethodPut,
		fmt.Sprintf("/collections/%s/points?wait=true", s.collection),
		map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("upserting points (status %d): %s", status, body)
	}
	return nil
}

// searchResponse is the /points/search response shape.
type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Query runs a nearest-neighbour search with the filter applied
// server-side.
func (s *Store) Query(ctx context.Context, embedding []float32, k int, filter domain.RetrievalFilter) ([]driven.ScoredRecord, error) {
	body := map[string]any{
		"vector":       embedding,
		"limit":        k,
		"with_payload": true,
	}
	if f := filterClause(filter); f != nil {
		body["filter"] = f
	}

	status, respBody, err := s.do(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/search", s.collection), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("searching points (status %d): %s", status, respBody)
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]driven.ScoredRecord, 0, len(parsed.Result))
	for _, hit := range parsed.Result {
		out = append(out, driven.ScoredRecord{
			Record: recordFromPayload(hit.Payload),
			Score:  hit.Score,
		})
	}
	return out, nil
}

// scrollResponse is the /points/scroll response shape.
type scrollResponse struct {
	Result struct {
		Points []struct {
			Payload map[string]any `json:"payload"`
		} `json:"points"`
		NextPageOffset any `json:"next_page_offset"`
	} `json:"result"`
}

// Get returns every record matching the filter via paged scrolling.
func (s *Store) Get(ctx context.Context, filter domain.RetrievalFilter) ([]driven.Record, error) {
	var out []driven.Record
	var offset any

	for {
		body := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": true,
		}
		if f := filterClause(filter); f != nil {
			body["filter"] = f
		}
		if offset != nil {
			body["offset"] = offset
		}

		status, respBody, err := s.do(ctx, http.MethodPost,
			fmt.Sprintf("/collections/%s/points/scroll", s.collection), body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("scrolling points (status %d): %s", status, respBody)
		}

		var parsed scrollResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("decode scroll response: %w", err)
		}

		for _, p := range parsed.Result.Points {
			out = append(out, recordFromPayload(p.Payload))
		}

		if parsed.Result.NextPageOffset == nil {
			return out, nil
		}
		offset = parsed.Result.NextPageOffset
	}
}

// GetByDocumentID returns every record of one document identity.
func (s *Store) GetByDocumentID(ctx context.Context, documentID string) ([]driven.Record, error) {
	var out []driven.Record
	var offset any

	clause := map[string]any{
		"must": []map[string]any{matchClause("document_id", documentID)},
	}

	for {
		body := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": true,
			"filter":       clause,
		}
		if offset != nil {
			body["offset"] = offset
		}

		status, respBody, err := s.do(ctx, http.MethodPost,
			fmt.Sprintf("/collections/%s/points/scroll", s.collection), body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("scrolling points (status %d): %s", status, respBody)
		}

		var parsed scrollResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("decode scroll response: %w", err)
		}

		for _, p := range parsed.Result.Points {
			out = append(out, recordFromPayload(p.Payload))
		}

		if parsed.Result.NextPageOffset == nil {
			return out, nil
		}
		offset = parsed.Result.NextPageOffset
	}
}

// UpdateMetadata rewrites payload fields, leaving vectors untouched.
func (s *Store) UpdateMetadata(ctx context.Context, ids []string, fields map[string]any) error {
	if len(ids) == 0 {
		return nil
	}

	points := make([]string, len(ids))
	for i, id := range ids {
		points[i] = pointID(id)
	}

	status, body, err := s.do(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/payload?wait=true", s.collection),
		map[string]any{
			"payload": fields,
			"points":  points,
		})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("setting payload (status %d): %s", status, body)
	}
	return nil
}

// Delete removes records by logical id.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	points := make([]string, len(ids))
	for i, id := range ids {
		points[i] = pointID(id)
	}

	status, body, err := s.do(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/delete?wait=true", s.collection),
		map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("deleting points (status %d): %s", status, body)
	}
	return nil
}

// countResponse is the /points/count response shape.
type countResponse struct {
	Result struct {
		Count int `json:"count"`
	} `json:"result"`
}

// Count returns the exact number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	status, respBody, err := s.do(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/count", s.collection),
		map[string]any{"exact": true})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("counting points (status %d): %s", status, respBody)
	}

	var parsed countResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return parsed.Result.Count, nil
}

// Close releases resources.
func (s *Store) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// filterClause converts a retrieval filter into Qdrant's must/match
// form. Returns nil for the empty filter.
func filterClause(filter domain.RetrievalFilter) map[string]any {
	var must []map[string]any
	if filter.Filename != "" {
		must = append(must, matchClause("filename", filter.Filename))
	}
	if filter.Date != "" {
		must = append(must, matchClause("date", filter.Date))
	}
	if filter.DocType != "" {
		must = append(must, matchClause("doc_type", filter.DocType))
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func matchClause(key, value string) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

// recordFromPayload rebuilds a Record from a point payload.
func recordFromPayload(payload map[string]any) driven.Record {
	r := driven.Record{Metadata: make(map[string]any, len(payload))}
	for k, v := range payload {
		switch k {
		case payloadIDKey:
			if id, ok := v.(string); ok {
				r.ID = id
			}
		case "text":
			if text, ok := v.(string); ok {
				r.Text = text
			}
		default:
			r.Metadata[k] = v
		}
	}
	return r
}

// do sends one request and returns the status code and body.
func (s *Store) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
