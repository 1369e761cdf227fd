// Package ingest drives documents end-to-end: extract, chunk, embed,
// upsert. Each document is processed independently; one failing document
// never aborts the rest of a run.
package ingest

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kbchat/internal/chunker"
	"kbchat/internal/domain"
	"kbchat/internal/embedding"
	"kbchat/internal/extract"
	"kbchat/internal/logger"
	"kbchat/internal/vectorstore"
)

// DefaultBatchSize bounds the number of chunks embedded and upserted per
// request.
const DefaultBatchSize = 100

// Config tunes the pipeline.
type Config struct {
	// BatchSize is the embed/upsert batch size. Defaults to 100.
	BatchSize int
	// Concurrency bounds how many documents are processed in parallel.
	// Defaults to 4.
	Concurrency int
}

// Pipeline ingests documents into the vector index.
type Pipeline struct {
	splitter    *chunker.Splitter
	embedder    embedding.Provider
	index       vectorstore.Index
	batchSize   int
	concurrency int
	log         logger.Logger
	now         func() time.Time
}

// New assembles a pipeline from its injected dependencies.
func New(splitter *chunker.Splitter, embedder embedding.Provider, index vectorstore.Index, cfg Config, log logger.Logger) *Pipeline {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	conc := cfg.Concurrency
	if conc <= 0 {
		conc = 4
	}
	return &Pipeline{
		splitter:    splitter,
		embedder:    embedder,
		index:       index,
		batchSize:   batch,
		concurrency: conc,
		log:         log,
		now:         time.Now,
	}
}

var idUnsafe = regexp.MustCompile(`[^A-Za-z0-9_\-=]`)

// ChunkID derives the deterministic record id for (sourceFile, index).
// Unsafe key characters, dots included, become underscores.
func ChunkID(sourceFile string, index int) string {
	return fmt.Sprintf("%s_%d", idUnsafe.ReplaceAllString(sourceFile, "_"), index)
}

// IngestText processes one already-extracted document. Existing chunks
// for the source file are deleted first so a shrunken document cannot
// leave stale trailing chunks behind. Returns the number of chunks
// written. A failing batch aborts the remainder of this document only;
// batches already upserted are not rolled back.
func (p *Pipeline) IngestText(ctx context.Context, sourceFile, text string) (int, error) {
	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%s: %w", sourceFile, domain.ErrExtractionEmpty)
	}
	p.log.Debug("document chunked", "source", sourceFile, "chunks", len(chunks))

	if err := p.index.DeleteSource(ctx, sourceFile); err != nil {
		return 0, fmt.Errorf("delete previous chunks of %s: %w", sourceFile, err)
	}

	uploadDate := p.now().UTC()
	written := 0
	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := p.upsertBatch(ctx, sourceFile, chunks[start:end], start, uploadDate); err != nil {
			return written, fmt.Errorf("ingest %s batch starting at chunk %d: %w", sourceFile, start, err)
		}
		written += end - start
	}
	p.log.Info("document ingested", "source", sourceFile, "chunks", written)
	return written, nil
}

func (p *Pipeline) upsertBatch(ctx context.Context, sourceFile string, texts []string, offset int, uploadDate time.Time) error {
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	records := make([]domain.DocumentChunk, len(texts))
	for i, content := range texts {
		records[i] = domain.DocumentChunk{
			ID:         ChunkID(sourceFile, offset+i),
			Content:    content,
			SourceFile: sourceFile,
			ChunkIndex: offset + i,
			Embedding:  vectors[i],
			UploadDate: uploadDate,
		}
	}
	if err := p.index.UpsertBatch(ctx, records); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// FileResult reports the outcome of one file in a multi-document run.
type FileResult struct {
	Path   string
	Chunks int
	Err    error
}

// IngestFiles extracts and ingests each path, fanning out across
// documents with bounded concurrency. Results come back in input order;
// per-file failures are reported in the result, not returned.
func (p *Pipeline) IngestFiles(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, len(paths))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			res := FileResult{Path: path}
			text, err := extract.Text(path)
			if err != nil {
				res.Err = err
			} else {
				res.Chunks, res.Err = p.IngestText(ctx, path, text)
			}
			if res.Err != nil {
				p.log.Warn("document failed", "source", path, "err", res.Err)
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}
