package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbchat/internal/conversation"
	"kbchat/internal/domain"
)

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{SourceFile: "tax_guide.pdf", ChunkIndex: 4, Content: "Home office expenses are deductible when...", RelevanceScore: 0.9},
		{SourceFile: "faq.pdf", ChunkIndex: 0, Content: "The deduction requires exclusive use of the space.", RelevanceScore: 0.7},
	}
}

func TestAssemble_PrivateWithResults(t *testing.T) {
	memory := conversation.NewWindow(5)
	memory.Append("what is a 1099?")

	req := Assemble(domain.ModePrivate, "can I deduct home office expenses?", sampleResults(), memory)

	assert.Contains(t, req.ContextBlock, "[Document 1 — Source: tax_guide.pdf, Chunk: 4]: Home office expenses")
	assert.Contains(t, req.ContextBlock, "[Document 2 — Source: faq.pdf, Chunk: 0]: The deduction")
	assert.Equal(t, 2, strings.Count(req.ContextBlock, "[Document"))
	assert.NotContains(t, req.ContextBlock, NoResultsSentinel)
	assert.Contains(t, req.SystemInstruction, "knowledge base")
}

func TestAssemble_PrivateEmptyResultsUsesSentinel(t *testing.T) {
	req := Assemble(domain.ModePrivate, "q", nil, conversation.NewWindow(5))

	assert.Equal(t, NoResultsSentinel, req.ContextBlock)
	assert.NotContains(t, req.ContextBlock, "[Document")
}

func TestAssemble_PublicOmitsContext(t *testing.T) {
	req := Assemble(domain.ModePublic, "q", sampleResults(), conversation.NewWindow(5))

	assert.Empty(t, req.ContextBlock)
	assert.NotContains(t, req.SystemInstruction, "knowledge base")
}

func TestAssemble_MemoryBlockChronological(t *testing.T) {
	memory := conversation.NewWindow(5)
	for _, q := range []string{"q1", "q2", "q3", "q4", "q5", "q6"} {
		memory.Append(q)
	}

	req := Assemble(domain.ModePrivate, "q6", nil, memory)
	assert.Equal(t, "q2\nq3\nq4\nq5\nq6", req.MemoryBlock)
}

func TestAssemble_EmptyMemory(t *testing.T) {
	req := Assemble(domain.ModePrivate, "q", nil, conversation.NewWindow(5))
	assert.Empty(t, req.MemoryBlock)

	req = Assemble(domain.ModePrivate, "q", nil, nil)
	assert.Empty(t, req.MemoryBlock)
}

func TestAssemble_Deterministic(t *testing.T) {
	memory := conversation.NewWindow(5)
	memory.Append("q1")
	a := Assemble(domain.ModePrivate, "q", sampleResults(), memory)
	b := Assemble(domain.ModePrivate, "q", sampleResults(), memory)
	assert.Equal(t, a, b)
}

func TestGenerationRequest_Prompt(t *testing.T) {
	req := Assemble(domain.ModePrivate, "the question", sampleResults(), nil)
	text := req.Prompt()
	require.Contains(t, text, "Knowledge base context:")
	assert.Contains(t, text, "Question: the question")

	public := Assemble(domain.ModePublic, "the question", nil, nil)
	assert.NotContains(t, public.Prompt(), "Knowledge base context:")
}
