// Package chunker splits document text into overlapping, size-bounded chunks.
package chunker

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// DefaultSeparators are tried in order, coarsest first. The empty separator
// splits into individual characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter is a recursive character text splitter. Lengths are counted in
// runes and each separator stays at the start of the piece that follows it.
type Splitter struct {
	rc textsplitter.RecursiveCharacter
}

// New creates a splitter emitting chunks of at most size characters, each
// sharing at most overlap characters with its predecessor.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, size)
	}

	return &Splitter{
		rc: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(DefaultSeparators),
			textsplitter.WithKeepSeparator(true),
		),
	}, nil
}

// Split returns the chunks of text in document order. Chunks are trimmed and
// never empty; only a single character longer than size could exceed it.
func (s *Splitter) Split(text string) ([]string, error) {
	pieces, err := s.rc.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}

	chunks := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p != "" {
			chunks = append(chunks, p)
		}
	}
	return chunks, nil
}
