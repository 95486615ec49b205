// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
)

// Retriever is the capability shared by both index branches: rank
// chunks for a query text. The fusion engine is retriever-agnostic;
// it only ever sees the ranked lists this interface produces.
//
// Implementations must order results by descending score with ties
// broken by ascending chunk ID, so that rank assignment during fusion
// is deterministic.
type Retriever interface {
	// Add indexes a chunk's text under the given chunk ID.
	Add(ctx context.Context, chunkID, text string) error

	// Query returns at most k ranked hits for the query text.
	// An empty corpus yields an empty list, not an error.
	Query(ctx context.Context, text string, k int) ([]domain.RankedHit, error)

	// Remove deletes the entry for chunkID. Removing an absent ID is
	// a no-op, not an error.
	Remove(ctx context.Context, chunkID string) error
}

// DenseIndex is the vector branch of hybrid retrieval. On top of the
// Retriever capability it exposes vector-level access used to persist
// embeddings and to rebuild the index at startup without re-embedding.
type DenseIndex interface {
	Retriever

	// AddVector inserts a precomputed embedding for the chunk ID,
	// bypassing the embedding provider.
	AddVector(chunkID string, vector []float32) error

	// Vector returns the stored embedding for the chunk ID.
	Vector(chunkID string) ([]float32, bool)

	// Dimensions returns the vector dimensionality, fixed for the
	// process lifetime. Zero until the first vector is stored when
	// the configured model does not declare its size.
	Dimensions() int

	// Len returns the number of indexed vectors.
	Len() int
}

// SparseIndex is the lexical branch of hybrid retrieval. It is pure
// local computation and never blocks on external I/O.
type SparseIndex interface {
	Retriever

	// Len returns the number of indexed chunks.
	Len() int
}
