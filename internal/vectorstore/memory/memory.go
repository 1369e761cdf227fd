// Package memory is an in-process vectorstore.Index using brute-force
// cosine similarity and token-overlap lexical ranking. It backs local
// development and tests; production uses the azsearch store.
package memory

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"kbchat/internal/domain"
)

// Store keeps chunks in memory, keyed by chunk ID.
type Store struct {
	mu        sync.RWMutex
	dimension int
	chunks    map[string]domain.DocumentChunk
}

// NewStore creates a store for vectors of the given dimension.
func NewStore(dimension int) *Store {
	return &Store{dimension: dimension, chunks: make(map[string]domain.DocumentChunk)}
}

// EnsureIndex is a no-op for the in-memory store.
func (s *Store) EnsureIndex(_ context.Context) error { return nil }

// DropIndex discards everything.
func (s *Store) DropIndex(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[string]domain.DocumentChunk)
	return nil
}

// UpsertBatch inserts or overwrites chunks by ID.
func (s *Store) UpsertBatch(_ context.Context, chunks []domain.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if len(c.Embedding) != s.dimension {
			return &domain.IndexError{
				Status: "400",
				Detail: "embedding dimension does not match index configuration",
			}
		}
		s.chunks[c.ID] = c
	}
	return nil
}

// VectorQuery ranks every chunk by cosine similarity to the query vector.
func (s *Store) VectorQuery(_ context.Context, embedding []float32, k int) ([]domain.SearchResult, error) {
	if len(embedding) != s.dimension {
		return nil, &domain.IndexError{Status: "400", Detail: "query vector dimension mismatch"}
	}
	return s.rank(k, func(c domain.DocumentChunk) float64 {
		return cosine(embedding, c.Embedding)
	}), nil
}

// TextQuery ranks chunks by Ochiai token overlap with the query.
func (s *Store) TextQuery(_ context.Context, query string, k int) ([]domain.SearchResult, error) {
	qset := tokenSet(query)
	return s.rank(k, func(c domain.DocumentChunk) float64 {
		return ochiai(qset, c.Content)
	}), nil
}

// DeleteSource drops every chunk belonging to the source file.
func (s *Store) DeleteSource(_ context.Context, sourceFile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.chunks {
		if c.SourceFile == sourceFile {
			delete(s.chunks, id)
		}
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Len reports the number of stored chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *Store) rank(k int, score func(domain.DocumentChunk) float64) []domain.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 {
		k = 5
	}
	results := make([]domain.SearchResult, 0, len(s.chunks))
	for _, c := range s.chunks {
		sc := score(c)
		if sc <= 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			ChunkID:        c.ID,
			Content:        c.Content,
			SourceFile:     c.SourceFile,
			ChunkIndex:     c.ChunkIndex,
			UploadDate:     c.UploadDate,
			RelevanceScore: sc,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// ochiai computes |Q∩T| / sqrt(|Q||T|) over unique lowercase word tokens.
func ochiai(qset map[string]struct{}, text string) float64 {
	tset := tokenSet(text)
	if len(qset) == 0 || len(tset) == 0 {
		return 0
	}
	inter := 0
	for t := range tset {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / (math.Sqrt(float64(len(qset))) * math.Sqrt(float64(len(tset))))
}
