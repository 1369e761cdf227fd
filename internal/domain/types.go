package domain

import "time"

// DocumentChunk is the unit of indexed text. The ID is deterministic from
// (SourceFile, ChunkIndex) so re-ingesting an unchanged document overwrites
// in place instead of duplicating.
type DocumentChunk struct {
	ID         string
	Content    string
	SourceFile string
	ChunkIndex int
	Embedding  []float32
	UploadDate time.Time
}

// SearchResult is a retrieved chunk with its engine relevance score.
// Higher scores mean more relevant; the scale is engine-defined.
type SearchResult struct {
	ChunkID        string
	Content        string
	SourceFile     string
	ChunkIndex     int
	UploadDate     time.Time
	RelevanceScore float64
}

// Mode selects the assistant behaviour for a session.
type Mode string

const (
	// ModePublic is a general-purpose assistant with no retrieval.
	ModePublic Mode = "public"
	// ModePrivate grounds answers in the knowledge base.
	ModePrivate Mode = "private"
)

// GenerationRequest is the fully assembled input for one generation call.
// It is ephemeral and never persisted.
type GenerationRequest struct {
	SystemInstruction string
	ContextBlock      string
	MemoryBlock       string
	Question          string
}

// Prompt renders the user-facing portion of the request, leaving the
// system instruction to be sent separately.
func (r GenerationRequest) Prompt() string {
	var b []byte
	if r.ContextBlock != "" {
		b = append(b, "Knowledge base context:\n"...)
		b = append(b, r.ContextBlock...)
		b = append(b, "\n\n"...)
	}
	if r.MemoryBlock != "" {
		b = append(b, "Previous questions in this conversation:\n"...)
		b = append(b, r.MemoryBlock...)
		b = append(b, "\n\n"...)
	}
	b = append(b, "Question: "...)
	b = append(b, r.Question...)
	return string(b)
}
