package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline. These are distinct from
// infrastructure errors carried by the typed structs below.
var (
	// ErrExtractionEmpty indicates a document yielded no usable text.
	// It aborts that one document, not the whole ingestion run.
	ErrExtractionEmpty = errors.New("extraction produced no usable text")

	// ErrEmbeddingUnavailable signals degraded mode: the embedding service
	// is unreachable and retrieval should take the text-search path. It is
	// a recognised condition, not a failure.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// IndexError is a failed call against the search index. An empty result
// set and an IndexError are semantically different: the former means "no
// relevant documents", the latter means "can't tell".
type IndexError struct {
	Status string
	Detail string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index error %s: %s", e.Status, e.Detail)
}

// RetrievalError wraps an index failure encountered during a query. It
// terminates the query before generation is attempted and must never be
// collapsed into an empty result set.
type RetrievalError struct {
	Path string // "vector" or "text"
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed on %s path: %v", e.Path, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError is the single shape all language-model call failures
// collapse to, whatever the underlying transport, quota or timeout cause.
type GenerationError struct {
	Message string
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Message
}
