// Package chunker splits extracted document text into overlapping
// fixed-size segments, the unit of indexing and retrieval.
package chunker

import (
	"fmt"
	"strings"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of characters shared between
// consecutive chunks.
const DefaultOverlap = 200

// separators are tried in priority order when choosing a cut point:
// paragraph break, line break, sentence break, then plain whitespace.
// A hard character cut is the last resort.
var separators = []string{"\n\n", "\n", ". ", " "}

// Splitter produces deterministic overlapping chunks. Consecutive chunks
// share exactly `overlap` characters of source text, so chunk indexes are
// reproducible and re-ingestion is idempotent.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter validates the parameters and returns a Splitter.
// Overlap must be strictly between zero and the chunk size.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap <= 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in (0, %d), got %d", chunkSize, overlap)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// ChunkSize returns the configured maximum chunk length in characters.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Split cuts text into chunks of at most chunkSize characters. Whitespace-only
// input yields no chunks and no error; the caller decides whether that is an
// extraction failure.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	n := len(runes)
	if n <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + s.chunkSize
		if end >= n {
			chunks = append(chunks, string(runes[start:n]))
			return chunks
		}
		cut := s.cutPoint(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))
		start = cut - s.overlap
	}
}

// cutPoint picks where the chunk starting at start should end. It prefers
// the latest separator occurrence inside the window, walking the separator
// priority list, but never cuts at or before start+overlap since the next
// chunk must begin strictly after the current one.
func (s *Splitter) cutPoint(runes []rune, start, end int) int {
	floor := start + s.overlap
	for _, sep := range separators {
		sepRunes := []rune(sep)
		for i := end - len(sepRunes); i+len(sepRunes) > floor; i-- {
			if i < start {
				break
			}
			if hasSeparatorAt(runes, i, sepRunes) {
				return i + len(sepRunes)
			}
		}
	}
	return end
}

func hasSeparatorAt(runes []rune, i int, sep []rune) bool {
	if i < 0 || i+len(sep) > len(runes) {
		return false
	}
	for j := range sep {
		if runes[i+j] != sep[j] {
			return false
		}
	}
	return true
}
