// Package chat composes retrieval, memory, prompt assembly and
// generation into the per-session question flow.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"kbchat/internal/conversation"
	"kbchat/internal/domain"
	"kbchat/internal/generation"
	"kbchat/internal/logger"
	"kbchat/internal/prompt"
	"kbchat/internal/retrieval"
)

// Retriever is the subset of the retrieval orchestrator the chat
// service depends on.
type Retriever interface {
	Probe(ctx context.Context) retrieval.Capability
	Retrieve(ctx context.Context, question string, topK int) ([]domain.SearchResult, error)
}

// Session carries one conversation's state. The caller serialises
// submissions: at most one Ask per session is in flight at a time.
type Session struct {
	ID         string
	Mode       domain.Mode
	Memory     *conversation.Window
	Capability retrieval.Capability
}

// Config tunes the chat service.
type Config struct {
	TopK       int
	MemorySize int
}

// Service answers questions for sessions. It holds no per-session
// state itself; sessions are passed in by the owner.
type Service struct {
	retriever  Retriever
	generator  generation.Generator
	topK       int
	memorySize int
	log        logger.Logger
}

// NewService assembles the chat service.
func NewService(retriever Retriever, generator generation.Generator, cfg Config, log logger.Logger) *Service {
	topK := cfg.TopK
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}
	memSize := cfg.MemorySize
	if memSize <= 0 {
		memSize = conversation.DefaultWindowSize
	}
	return &Service{
		retriever:  retriever,
		generator:  generator,
		topK:       topK,
		memorySize: memSize,
		log:        log,
	}
}

// NewSession creates a session and probes retrieval capability once at
// initialisation. Later queries re-probe on the orchestrator's TTL.
func (s *Service) NewSession(ctx context.Context, mode domain.Mode) *Session {
	sess := &Session{
		ID:     uuid.NewString(),
		Mode:   mode,
		Memory: conversation.NewWindow(s.memorySize),
	}
	if mode == domain.ModePrivate {
		sess.Capability = s.retriever.Probe(ctx)
		s.log.Debug("session started", "id", sess.ID, "mode", mode,
			"vector", sess.Capability.VectorEnabled)
	}
	return sess
}

// Ask answers one question. The raw question goes into memory before
// anything can fail, so a generation failure never loses it and retry
// needs no re-typing. Public mode performs no retrieval at all.
func (s *Service) Ask(ctx context.Context, sess *Session, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}
	sess.Memory.Append(question)

	var results []domain.SearchResult
	if sess.Mode == domain.ModePrivate {
		var err error
		results, err = s.retriever.Retrieve(ctx, question, s.topK)
		if err != nil {
			return "", err
		}
		s.log.Debug("retrieved context", "session", sess.ID, "results", len(results))
	}

	req := prompt.Assemble(sess.Mode, question, results, sess.Memory)
	answer, err := s.generator.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return answer, nil
}
