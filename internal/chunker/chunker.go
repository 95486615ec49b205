// Package chunker splits extracted document text into overlapping
// passages with stable identifiers.
package chunker

import (
	"fmt"
	"unicode"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of tokens per chunk.
const DefaultChunkSize = 200

// DefaultOverlap is the default number of tokens shared by
// consecutive chunks. Overlap bridges context lost at boundaries.
const DefaultOverlap = 40

// Config controls the chunking window.
type Config struct {
	// ChunkSize is the maximum chunk length in tokens.
	ChunkSize int

	// Overlap is the number of tokens consecutive chunks share.
	// Must be smaller than ChunkSize.
	Overlap int
}

// DefaultConfig returns the default chunking configuration.
func DefaultConfig() Config {
	return Config{ChunkSize: DefaultChunkSize, Overlap: DefaultOverlap}
}

// token is a whitespace-delimited span of the source text.
type token struct {
	start int // byte offset of the first byte
	end   int // byte offset one past the last byte
}

// Split cuts text into chunks of at most cfg.ChunkSize tokens, with
// consecutive chunks overlapping by cfg.Overlap tokens. Character
// offsets into text are preserved on every chunk for citation display.
//
// Chunk IDs are derived from docID and the ordinal, so the same
// document chunked with the same parameters always yields the same
// sequence.
func Split(docID, text string, cfg Config) ([]domain.Chunk, error) {
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, cfg.ChunkSize)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("%w: overlap (%d) must be in [0, chunk size %d)",
			domain.ErrInvalidConfig, cfg.Overlap, cfg.ChunkSize)
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	step := cfg.ChunkSize - cfg.Overlap
	chunks := make([]domain.Chunk, 0, len(tokens)/step+1)

	for start := 0; start < len(tokens); start += step {
		end := start + cfg.ChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		first, last := tokens[start], tokens[end-1]
		ordinal := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:          ChunkID(docID, ordinal),
			DocumentID:  docID,
			Ordinal:     ordinal,
			Content:     text[first.start:last.end],
			StartOffset: first.start,
			EndOffset:   last.end,
			TokenCount:  end - start,
		})

		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}

// ChunkID returns the stable identifier for the ordinal-th chunk of a
// document. Ordinals are zero-padded so lexicographic ID order matches
// document order.
func ChunkID(docID string, ordinal int) string {
	return fmt.Sprintf("%s#%04d", docID, ordinal)
}

// tokenize records the byte span of every whitespace-delimited token.
func tokenize(text string) []token {
	var tokens []token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, token{start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{start: start, end: len(text)})
	}
	return tokens
}
