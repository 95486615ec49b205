// Package dense provides the semantic branch of hybrid retrieval: an
// in-memory vector index with exact (brute-force) nearest-neighbour
// queries. Corpora here are a handful of uploaded documents, so exact
// scan beats an ANN structure on both simplicity and determinism.
package dense

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.DenseIndex = (*Index)(nil)

// Metric selects the similarity function.
type Metric string

const (
	// MetricCosine ranks by cosine similarity (higher is better).
	MetricCosine Metric = "cosine"

	// MetricL2 ranks by negated Euclidean distance (higher is better),
	// so both metrics sort the same way.
	MetricL2 Metric = "l2"
)

// Default retry behaviour for embedding-provider calls.
const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 200 * time.Millisecond
)

// Config holds index configuration. The metric is an explicit
// parameter: the index carries no ranking policy beyond metric + k.
type Config struct {
	// Metric is the similarity function (default: cosine).
	Metric Metric

	// MaxAttempts bounds embedding calls per chunk (default: 3).
	MaxAttempts int

	// Backoff is the initial retry delay, doubled per attempt.
	Backoff time.Duration
}

// Index stores one embedding per chunk and answers nearest-neighbour
// queries. Entries are published atomically: the write lock is taken
// only around the map insert of a fully computed vector, so a
// concurrent query sees either the complete entry or none of it, and
// ingestion never blocks unrelated queries on provider I/O.
type Index struct {
	mu       sync.RWMutex
	embedder driven.EmbeddingService
	metric   Metric
	attempts int
	backoff  time.Duration
	dims     int
	entries  map[string][]float32
}

// New creates a dense index backed by the given embedding provider.
func New(embedder driven.EmbeddingService, cfg Config) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding service is required", domain.ErrInvalidConfig)
	}
	if cfg.Metric == "" {
		cfg.Metric = MetricCosine
	}
	if cfg.Metric != MetricCosine && cfg.Metric != MetricL2 {
		return nil, fmt.Errorf("%w: unknown metric %q", domain.ErrInvalidConfig, cfg.Metric)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}

	return &Index{
		embedder: embedder,
		metric:   cfg.Metric,
		attempts: cfg.MaxAttempts,
		backoff:  cfg.Backoff,
		dims:     embedder.Dimensions(),
		entries:  make(map[string][]float32),
	}, nil
}

// Add embeds text via the provider and stores the vector under
// chunkID. Provider failures are retried with exponential backoff up
// to the configured attempt count, then reported to the caller so
// ingestion can record the chunk as failed and continue.
func (idx *Index) Add(ctx context.Context, chunkID, text string) error {
	vector, err := idx.embedWithRetry(ctx, text)
	if err != nil {
		return fmt.Errorf("embed chunk %s: %w", chunkID, err)
	}
	return idx.AddVector(chunkID, vector)
}

// AddVector inserts a precomputed embedding, bypassing the provider.
// Used to rebuild the index from persisted vectors at startup.
func (idx *Index) AddVector(chunkID string, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for chunk %s", domain.ErrDimensionMismatch, chunkID)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dims == 0 {
		// First vector fixes the dimensionality for the process lifetime.
		idx.dims = len(vector)
	}
	if len(vector) != idx.dims {
		return fmt.Errorf("%w: chunk %s has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, chunkID, len(vector), idx.dims)
	}

	idx.entries[chunkID] = vector
	return nil
}

// Remove deletes the entry for chunkID; removing an absent ID is a no-op.
func (idx *Index) Remove(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.entries, chunkID)
	return nil
}

// Query embeds the query text and returns the k most similar chunks,
// sorted by descending similarity with ties broken by ascending chunk
// ID. An empty index yields an empty list without calling the provider.
func (idx *Index) Query(ctx context.Context, text string, k int) ([]domain.RankedHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: query limit must be positive, got %d", domain.ErrInvalidConfig, k)
	}
	if idx.Len() == 0 {
		return nil, nil
	}

	query, err := idx.embedWithRetry(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	idx.mu.RLock()
	hits := make([]domain.RankedHit, 0, len(idx.entries))
	for chunkID, vector := range idx.entries {
		hits = append(hits, domain.RankedHit{
			ChunkID: chunkID,
			Score:   idx.similarity(query, vector),
		})
	}
	idx.mu.RUnlock()

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

// Vector returns the stored embedding for chunkID.
func (idx *Index) Vector(chunkID string) ([]float32, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	vector, ok := idx.entries[chunkID]
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vector))
	copy(out, vector)
	return out, true
}

// Dimensions returns the fixed vector dimensionality.
func (idx *Index) Dimensions() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dims
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

func (idx *Index) similarity(a, b []float32) float64 {
	switch idx.metric {
	case MetricL2:
		return -l2Distance(a, b)
	default:
		return cosine(a, b)
	}
}

// embedWithRetry calls the provider, retrying transient failures
// (unavailability, rate limits) with exponential backoff. It honours
// context cancellation between attempts so a caller-level timeout
// turns into a degraded branch, never an indefinite block.
func (idx *Index) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	backoff := idx.backoff
	var lastErr error

	for attempt := 1; attempt <= idx.attempts; attempt++ {
		vector, err := idx.embedder.Embed(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err

		if !errors.Is(err, domain.ErrEmbeddingUnavailable) && !errors.Is(err, domain.ErrRateLimited) {
			return nil, err
		}
		if attempt == idx.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", idx.attempts, lastErr)
}

// cosine similarity between two vectors of equal length.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// l2Distance is the Euclidean distance between two vectors.
func l2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
