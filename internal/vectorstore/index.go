// Package vectorstore defines the search index port. Implementations
// store chunk records and answer vector-similarity and lexical queries.
package vectorstore

import (
	"context"

	"kbchat/internal/domain"
)

// Index persists document chunks and serves retrieval queries. All
// failures surface as *domain.IndexError; an empty result slice is a
// valid success meaning "nothing relevant".
type Index interface {
	// EnsureIndex creates or updates the index schema.
	EnsureIndex(ctx context.Context) error

	// DropIndex deletes the index and everything in it.
	DropIndex(ctx context.Context) error

	// UpsertBatch writes a batch of chunks. Deterministic chunk IDs make
	// this an idempotent overwrite for unchanged content.
	UpsertBatch(ctx context.Context, chunks []domain.DocumentChunk) error

	// VectorQuery runs approximate-nearest-neighbour search over the
	// embedding field and returns at most k results, best first.
	VectorQuery(ctx context.Context, embedding []float32, k int) ([]domain.SearchResult, error)

	// TextQuery runs lexical relevance ranking over chunk content. It is
	// the fallback path and is never merged with vector scores.
	TextQuery(ctx context.Context, query string, k int) ([]domain.SearchResult, error)

	// DeleteSource removes every chunk belonging to one source file, so
	// re-ingestion of a shrunken document leaves no stale trailing chunks.
	DeleteSource(ctx context.Context, sourceFile string) error

	// Close releases resources.
	Close() error
}
