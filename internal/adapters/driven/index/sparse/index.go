// Package sparse provides the lexical branch of hybrid retrieval: an
// in-memory inverted index ranked with BM25 (Okapi variant).
package sparse

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SparseIndex = (*Index)(nil)

// BM25 parameters. k1 controls term-frequency saturation, b controls
// document-length normalisation.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// entry holds the per-chunk term statistics.
type entry struct {
	freqs  map[string]int
	length int
}

// Index is an in-memory BM25 inverted index over chunks.
//
// Corpus-wide statistics (document frequency, total length) are
// mutated by every Add/Remove and therefore live behind the same
// single writer lock as the postings. Queries take the read lock only,
// so concurrent queries never block each other, and an entry is
// published atomically: it is either fully visible or not at all.
type Index struct {
	mu       sync.RWMutex
	k1       float64
	b        float64
	postings map[string]map[string]int // term -> chunkID -> term frequency
	entries  map[string]entry          // chunkID -> stats
	totalLen int
}

// Option configures the index.
type Option func(*Index)

// WithK1 overrides the term-frequency saturation parameter.
func WithK1(k1 float64) Option {
	return func(idx *Index) {
		if k1 > 0 {
			idx.k1 = k1
		}
	}
}

// WithB overrides the length-normalisation parameter.
func WithB(b float64) Option {
	return func(idx *Index) {
		if b >= 0 && b <= 1 {
			idx.b = b
		}
	}
}

// New creates an empty BM25 index.
func New(opts ...Option) *Index {
	idx := &Index{
		k1:       DefaultK1,
		b:        DefaultB,
		postings: make(map[string]map[string]int),
		entries:  make(map[string]entry),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Add tokenizes text and stores its term statistics under chunkID.
// Adding an existing ID replaces the previous entry. Pure local
// computation; the context is accepted for interface symmetry only.
func (idx *Index) Add(_ context.Context, chunkID, text string) error {
	terms := Tokenize(text)
	freqs := termFrequencies(terms)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(chunkID)

	for term, tf := range freqs {
		chunks, ok := idx.postings[term]
		if !ok {
			chunks = make(map[string]int)
			idx.postings[term] = chunks
		}
		chunks[chunkID] = tf
	}
	idx.entries[chunkID] = entry{freqs: freqs, length: len(terms)}
	idx.totalLen += len(terms)
	return nil
}

// Remove deletes the entry for chunkID and decrements corpus
// statistics. Removing an absent ID is a no-op.
func (idx *Index) Remove(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(chunkID)
	return nil
}

func (idx *Index) removeLocked(chunkID string) {
	e, ok := idx.entries[chunkID]
	if !ok {
		return
	}
	for term := range e.freqs {
		chunks := idx.postings[term]
		delete(chunks, chunkID)
		if len(chunks) == 0 {
			delete(idx.postings, term)
		}
	}
	idx.totalLen -= e.length
	delete(idx.entries, chunkID)
}

// Query ranks chunks containing at least one query term with BM25 and
// returns the top k, ties broken by ascending chunk ID. An empty
// corpus or a query with no known terms yields an empty list.
func (idx *Index) Query(_ context.Context, text string, k int) ([]domain.RankedHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: query limit must be positive, got %d", domain.ErrInvalidConfig, k)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.entries)
	if n == 0 {
		return nil, nil
	}
	avgLen := float64(idx.totalLen) / float64(n)

	scores := make(map[string]float64)
	for _, term := range Tokenize(text) {
		chunks, ok := idx.postings[term]
		if !ok {
			continue
		}
		idf := okapiIDF(n, len(chunks))
		for chunkID, tf := range chunks {
			e := idx.entries[chunkID]
			norm := 1 - idx.b + idx.b*float64(e.length)/avgLen
			scores[chunkID] += idf * float64(tf) * (idx.k1 + 1) / (float64(tf) + idx.k1*norm)
		}
	}

	hits := make([]domain.RankedHit, 0, len(scores))
	for chunkID, score := range scores {
		hits = append(hits, domain.RankedHit{ChunkID: chunkID, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// okapiIDF is the Okapi BM25 inverse document frequency. The +1 under
// the log keeps it positive even when a term occurs in every chunk,
// which matters for single-document corpora.
func okapiIDF(n, df int) float64 {
	return math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
}
