// Package embeddingtest provides a deterministic in-process embedding
// service for tests. Vectors are derived from simple text statistics,
// so similar texts land near each other without any network calls.
package embeddingtest

import (
	"context"
	"strings"
	"sync"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driven"
)

// Ensure Fake implements the interface.
var _ driven.EmbeddingService = (*Fake)(nil)

// Dims is the dimensionality of fake vectors.
const Dims = 8

// Fake is a deterministic embedding service. FailNext injects
// transient provider failures to exercise retry and degradation paths.
type Fake struct {
	mu sync.Mutex

	// failNext is the number of upcoming calls that return ErrUnavailable.
	failNext int

	// failWith overrides the injected error (default ErrEmbeddingUnavailable).
	failWith error

	// Calls counts Embed invocations, including failed ones.
	Calls int
}

// New creates a fake embedding service.
func New() *Fake {
	return &Fake{}
}

// FailNext makes the next n Embed calls fail with err. A nil err
// defaults to domain.ErrEmbeddingUnavailable.
func (f *Fake) FailNext(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = n
	f.failWith = err
}

// Embed derives a deterministic vector from text statistics: length,
// vowels, digits, spaces and a few letter-bucket counts.
func (f *Fake) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.Calls++
	if f.failNext > 0 {
		f.failNext--
		err := f.failWith
		f.mu.Unlock()
		if err == nil {
			err = domain.ErrEmbeddingUnavailable
		}
		return nil, err
	}
	f.mu.Unlock()

	vec := make([]float32, Dims)
	for _, r := range strings.ToLower(text) {
		vec[0]++
		switch {
		case strings.ContainsRune("aeiou", r):
			vec[1]++
		case r >= '0' && r <= '9':
			vec[2]++
		case r == ' ':
			vec[3]++
		case r >= 'a' && r <= 'f':
			vec[4]++
		case r >= 'g' && r <= 'm':
			vec[5]++
		case r >= 'n' && r <= 's':
			vec[6]++
		case r >= 't' && r <= 'z':
			vec[7]++
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (f *Fake) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the fake vector size.
func (f *Fake) Dimensions() int { return Dims }

// ModelName identifies the fake model.
func (f *Fake) ModelName() string { return "fake-embed" }

// Ping always succeeds.
func (f *Fake) Ping(context.Context) error { return nil }

// Close releases nothing.
func (f *Fake) Close() error { return nil }
