// Package embedding maps text to fixed-length vectors via the embedding
// sidecar service. The same provider must back both ingestion and query,
// or the vectors in the index are not comparable.
package embedding

import "context"

// Provider converts free text into a numeric vector representation of a
// fixed dimension declared at construction.
type Provider interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds many texts in one call. Per-item semantics are
	// identical to Embed; the batch form only amortises call overhead.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector length every call produces.
	Dimension() int

	// Healthy reports whether the service is currently reachable. It is
	// a cheap probe; false selects the text-search fallback rather than
	// failing requests.
	Healthy(ctx context.Context) bool

	// Close releases the underlying connections.
	Close() error
}
