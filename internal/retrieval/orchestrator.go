// Package retrieval decides between vector search and the lexical
// fallback, issues the query and normalises the results.
package retrieval

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"kbchat/internal/domain"
	"kbchat/internal/embedding"
	"kbchat/internal/logger"
	"kbchat/internal/vectorstore"
)

// DefaultTopK is the number of results a query asks for.
const DefaultTopK = 5

// DefaultProbeTTL bounds how long a health probe result is trusted. A
// recovered embedding service is picked up on the first query after
// expiry instead of requiring a restart.
const DefaultProbeTTL = 5 * time.Minute

// Capability is the explicit outcome of an embedding health probe.
type Capability struct {
	VectorEnabled bool
	CheckedAt     time.Time
}

// Config tunes the orchestrator.
type Config struct {
	ProbeTTL time.Duration
}

// Orchestrator owns the vector-vs-text routing decision for queries.
type Orchestrator struct {
	embedder embedding.Provider
	index    vectorstore.Index
	probeTTL time.Duration
	log      logger.Logger
	now      func() time.Time

	mu     sync.Mutex
	cached Capability
	probed bool
}

// New assembles an orchestrator over the injected provider and index.
func New(embedder embedding.Provider, index vectorstore.Index, cfg Config, log logger.Logger) *Orchestrator {
	ttl := cfg.ProbeTTL
	if ttl <= 0 {
		ttl = DefaultProbeTTL
	}
	return &Orchestrator{
		embedder: embedder,
		index:    index,
		probeTTL: ttl,
		log:      log,
		now:      time.Now,
	}
}

// Probe checks embedding-service health now and caches the result. Call
// it at session initialisation; Retrieve re-probes once the TTL expires.
func (o *Orchestrator) Probe(ctx context.Context) Capability {
	health := o.embedder.Healthy(ctx)
	probed := Capability{VectorEnabled: health, CheckedAt: o.now()}
	o.mu.Lock()
	o.cached = probed
	o.probed = true
	o.mu.Unlock()
	if !health {
		o.log.Warn("embedding service unavailable, queries will use text search")
	}
	return probed
}

// capability returns the cached probe result, refreshing it on expiry.
func (o *Orchestrator) capability(ctx context.Context) Capability {
	o.mu.Lock()
	fresh := o.probed && o.now().Sub(o.cached.CheckedAt) < o.probeTTL
	cached := o.cached
	o.mu.Unlock()
	if fresh {
		return cached
	}
	return o.Probe(ctx)
}

// Retrieve answers a question with at most topK results, best first. An
// empty slice is a valid outcome meaning nothing relevant; a failed index
// call surfaces as *domain.RetrievalError, never as an empty slice.
func (o *Orchestrator) Retrieve(ctx context.Context, question string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	if o.capability(ctx).VectorEnabled {
		results, err := o.vectorPath(ctx, question, topK)
		if err == nil {
			return normalize(results, topK), nil
		}
		var rerr *domain.RetrievalError
		if errors.As(err, &rerr) {
			return nil, err
		}
		// Embedding failed after a healthy probe: degrade to text search
		// for this query and drop the stale capability.
		o.log.Warn("embedding failed, falling back to text search", "err", err)
		o.mu.Lock()
		o.cached.VectorEnabled = false
		o.mu.Unlock()
	}

	results, err := o.index.TextQuery(ctx, question, topK)
	if err != nil {
		return nil, &domain.RetrievalError{Path: "text", Err: err}
	}
	return normalize(results, topK), nil
}

func (o *Orchestrator) vectorPath(ctx context.Context, question string, topK int) ([]domain.SearchResult, error) {
	vec, err := o.embedder.Embed(ctx, question)
	if err != nil {
		// Not a RetrievalError: the caller degrades to the text path.
		return nil, domain.ErrEmbeddingUnavailable
	}
	results, err := o.index.VectorQuery(ctx, vec, topK)
	if err != nil {
		return nil, &domain.RetrievalError{Path: "vector", Err: err}
	}
	return results, nil
}

// normalize clamps to topK and enforces descending relevance order. Ties
// keep the engine's ordering.
func normalize(results []domain.SearchResult, topK int) []domain.SearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
