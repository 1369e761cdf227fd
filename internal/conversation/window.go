// Package conversation holds the bounded window of prior user questions
// that gives the language model short-term context. Questions only,
// never answers or retrieved context.
package conversation

// DefaultWindowSize is the number of questions retained per session.
const DefaultWindowSize = 5

// Window is an ordered FIFO of the most recent raw user questions.
// Append is the only mutation; the oldest entry is evicted once full.
type Window struct {
	entries []string
	size    int
}

// NewWindow creates a window retaining at most size questions. A size
// of zero or less uses the default.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{size: size}
}

// Append records a question, evicting the oldest entry when full.
func (w *Window) Append(question string) {
	w.entries = append(w.entries, question)
	if len(w.entries) > w.size {
		w.entries = w.entries[len(w.entries)-w.size:]
	}
}

// Entries returns the retained questions oldest first. The slice is a
// copy; mutating it does not affect the window.
func (w *Window) Entries() []string {
	out := make([]string, len(w.entries))
	copy(out, w.entries)
	return out
}

// Len reports how many questions are retained.
func (w *Window) Len() int { return len(w.entries) }
