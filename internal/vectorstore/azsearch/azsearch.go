// Package azsearch is a minimal REST client for Azure AI Search. It owns
// the index schema (HNSW over the content_vector field) and normalises
// the engine's loosely-typed responses into domain records at ingress.
package azsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kbchat/internal/domain"
)

const apiVersion = "2023-11-01"

// Config carries the connection details for one search index.
type Config struct {
	Endpoint  string
	APIKey    string
	IndexName string
	Dimension int
	Timeout   time.Duration
}

// Store implements vectorstore.Index against Azure AI Search.
type Store struct {
	endpoint  string
	apiKey    string
	indexName string
	dimension int
	client    *http.Client
}

// NewStore creates a client. The dimension must match the embedding
// provider writing to the index.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("azure search endpoint and api key are required")
	}
	indexName := cfg.IndexName
	if indexName == "" {
		indexName = "kb-documents"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:    cfg.APIKey,
		indexName: indexName,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// EnsureIndex creates or updates the index schema: id key, searchable
// content and source_file, filterable chunk_index and upload_date, and
// an HNSW cosine vector field sized to the embedding dimension.
func (s *Store) EnsureIndex(ctx context.Context) error {
	body := map[string]any{
		"name": s.indexName,
		"fields": []map[string]any{
			{"name": "id", "type": "Edm.String", "key": true, "filterable": true},
			{"name": "content", "type": "Edm.String", "searchable": true},
			{"name": "source_file", "type": "Edm.String", "searchable": true, "filterable": true},
			{"name": "chunk_index", "type": "Edm.Int32", "filterable": true},
			{"name": "upload_date", "type": "Edm.DateTimeOffset", "filterable": true},
			{
				"name":                "content_vector",
				"type":                "Collection(Edm.Single)",
				"searchable":          true,
				"dimensions":          s.dimension,
				"vectorSearchProfile": "vector-profile",
			},
		},
		"vectorSearch": map[string]any{
			"algorithms": []map[string]any{{
				"name": "hnsw-config",
				"kind": "hnsw",
				"hnswParameters": map[string]any{
					"m":              4,
					"efConstruction": 400,
					"efSearch":       500,
					"metric":         "cosine",
				},
			}},
			"profiles": []map[string]any{{
				"name":      "vector-profile",
				"algorithm": "hnsw-config",
			}},
		},
	}
	url := fmt.Sprintf("%s/indexes/%s?api-version=%s&allowIndexDowntime=true", s.endpoint, s.indexName, apiVersion)
	return s.do(ctx, http.MethodPut, url, body, nil)
}

// DropIndex deletes the index and all documents in it.
func (s *Store) DropIndex(ctx context.Context) error {
	url := fmt.Sprintf("%s/indexes/%s?api-version=%s", s.endpoint, s.indexName, apiVersion)
	return s.do(ctx, http.MethodDelete, url, nil, nil)
}

// record is the wire shape of one indexed chunk. Every field is always
// serialised: chunk_index 0 is a real value, not an absence.
type record struct {
	Action        string    `json:"@search.action"`
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	SourceFile    string    `json:"source_file"`
	ChunkIndex    int       `json:"chunk_index"`
	UploadDate    string    `json:"upload_date"`
	ContentVector []float32 `json:"content_vector"`
}

// deleteAction is the minimal payload for removing one document by key.
type deleteAction struct {
	Action string `json:"@search.action"`
	ID     string `json:"id"`
}

// UpsertBatch uploads chunks with mergeOrUpload semantics.
func (s *Store) UpsertBatch(ctx context.Context, chunks []domain.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]record, len(chunks))
	for i, c := range chunks {
		docs[i] = record{
			Action:        "mergeOrUpload",
			ID:            c.ID,
			Content:       c.Content,
			SourceFile:    c.SourceFile,
			ChunkIndex:    c.ChunkIndex,
			UploadDate:    c.UploadDate.UTC().Format(time.RFC3339),
			ContentVector: c.Embedding,
		}
	}
	return s.do(ctx, http.MethodPost, s.docsURL("index"), map[string]any{"value": docs}, nil)
}

// hit is the narrow response record read off the search endpoint.
type hit struct {
	Score      float64 `json:"@search.score"`
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	SourceFile string  `json:"source_file"`
	ChunkIndex int     `json:"chunk_index"`
	UploadDate string  `json:"upload_date"`
}

type searchResponse struct {
	Value []hit `json:"value"`
}

const selectFields = "id,content,source_file,chunk_index,upload_date"

// VectorQuery runs ANN search over content_vector.
func (s *Store) VectorQuery(ctx context.Context, embedding []float32, k int) ([]domain.SearchResult, error) {
	body := map[string]any{
		"count":  false,
		"select": selectFields,
		"vectorQueries": []map[string]any{{
			"kind":   "vector",
			"vector": embedding,
			"k":      k,
			"fields": "content_vector",
		}},
	}
	var resp searchResponse
	if err := s.do(ctx, http.MethodPost, s.docsURL("search"), body, &resp); err != nil {
		return nil, err
	}
	return s.normalize(resp.Value, k), nil
}

// TextQuery runs lexical search over the searchable fields.
func (s *Store) TextQuery(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	body := map[string]any{
		"search": query,
		"top":    k,
		"select": selectFields,
	}
	var resp searchResponse
	if err := s.do(ctx, http.MethodPost, s.docsURL("search"), body, &resp); err != nil {
		return nil, err
	}
	return s.normalize(resp.Value, k), nil
}

// DeleteSource looks up every chunk id for the source file and issues
// delete actions for them. Deletes are applied asynchronously on the
// engine side, so a re-queried page can still contain ids already sent
// for deletion; those are skipped, and a page with no new ids ends the
// loop.
func (s *Store) DeleteSource(ctx context.Context, sourceFile string) error {
	body := map[string]any{
		"filter": fmt.Sprintf("source_file eq '%s'", strings.ReplaceAll(sourceFile, "'", "''")),
		"select": "id",
		"top":    1000,
	}
	seen := make(map[string]struct{})
	for {
		var resp searchResponse
		if err := s.do(ctx, http.MethodPost, s.docsURL("search"), body, &resp); err != nil {
			return err
		}
		docs := make([]deleteAction, 0, len(resp.Value))
		for _, h := range resp.Value {
			if _, ok := seen[h.ID]; ok {
				continue
			}
			seen[h.ID] = struct{}{}
			docs = append(docs, deleteAction{Action: "delete", ID: h.ID})
		}
		if len(docs) == 0 {
			return nil
		}
		if err := s.do(ctx, http.MethodPost, s.docsURL("index"), map[string]any{"value": docs}, nil); err != nil {
			return err
		}
		if len(resp.Value) < 1000 {
			return nil
		}
	}
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Store) normalize(hits []hit, k int) []domain.SearchResult {
	if len(hits) > k {
		hits = hits[:k]
	}
	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		uploaded, _ := time.Parse(time.RFC3339, h.UploadDate)
		results = append(results, domain.SearchResult{
			ChunkID:        h.ID,
			Content:        h.Content,
			SourceFile:     h.SourceFile,
			ChunkIndex:     h.ChunkIndex,
			UploadDate:     uploaded,
			RelevanceScore: h.Score,
		})
	}
	return results
}

func (s *Store) docsURL(op string) string {
	return fmt.Sprintf("%s/indexes/%s/docs/%s?api-version=%s", s.endpoint, s.indexName, op, apiVersion)
}

func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &domain.IndexError{Status: "encode", Detail: err.Error()}
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &domain.IndexError{Status: "request", Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return &domain.IndexError{Status: "transport", Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &domain.IndexError{
			Status: strconv.Itoa(resp.StatusCode),
			Detail: strings.TrimSpace(string(payload)),
		}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &domain.IndexError{Status: "decode", Detail: err.Error()}
		}
	}
	return nil
}
