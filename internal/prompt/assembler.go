// Package prompt assembles generation requests from retrieved context,
// conversation memory and the user question. Assembly is pure and
// deterministic: same inputs, same request.
package prompt

import (
	"fmt"
	"strings"

	"kbchat/internal/conversation"
	"kbchat/internal/domain"
)

// NoResultsSentinel is rendered instead of a context block when private
// retrieval comes back empty.
const NoResultsSentinel = "No relevant documents found in the knowledge base."

const publicInstruction = `You are a professional, helpful assistant. ` +
	`Answer questions clearly and accurately, ask for clarification when a ` +
	`question is ambiguous, and keep a courteous, practical tone.`

const privateInstruction = `You are a professional assistant backed by a ` +
	`curated knowledge base. Follow these rules:
1. Prefer the retrieved knowledge base context when it is relevant to the question.
2. When the knowledge base does not cover the question, say so explicitly.
3. Always provide a best-effort answer from general knowledge rather than refusing.
4. Use structured formatting: short paragraphs, bullet points and numbered steps where they help.`

// Assemble builds the generation request for one question. In public
// mode the context block is always omitted; in private mode it carries
// the labelled results or the no-results sentinel.
func Assemble(mode domain.Mode, question string, results []domain.SearchResult, memory *conversation.Window) domain.GenerationRequest {
	req := domain.GenerationRequest{
		Question:    question,
		MemoryBlock: memoryBlock(memory),
	}
	switch mode {
	case domain.ModePrivate:
		req.SystemInstruction = privateInstruction
		req.ContextBlock = contextBlock(results)
	default:
		req.SystemInstruction = publicInstruction
	}
	return req
}

func contextBlock(results []domain.SearchResult) string {
	if len(results) == 0 {
		return NoResultsSentinel
	}
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Document %d — Source: %s, Chunk: %d]: %s",
			i+1, r.SourceFile, r.ChunkIndex, r.Content)
	}
	return strings.Join(blocks, "\n\n")
}

func memoryBlock(memory *conversation.Window) string {
	if memory == nil {
		return ""
	}
	return strings.Join(memory.Entries(), "\n")
}
