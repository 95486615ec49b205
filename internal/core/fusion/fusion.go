// Package fusion merges ranked result lists with Reciprocal Rank Fusion.
//
// The two retrieval branches score on incomparable scales (BM25 vs
// cosine similarity), so fusion ignores scores entirely and works on
// rank positions. The package is pure: no I/O, no state, deterministic
// for a given input, which keeps it testable in isolation from the
// embedding provider.
package fusion

import (
	"fmt"
	"sort"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
)

// DefaultK is the conventional RRF smoothing constant.
const DefaultK = 60

// Fuse merges two ranked lists into one, scoring each chunk ID by the
// sum of 1/(kConstant+rank) over the lists it appears in. Ranks are
// 1-based and gap-free; the input order is the rank order, since each
// retriever has already applied its own tie-break.
//
// A chunk present in only one list still scores (the missing list
// contributes zero). Output is sorted by descending fused score; ties
// prefer chunks present in both lists, then ascending chunk ID. The
// result is truncated to topN. Two empty inputs fuse to an empty list.
func Fuse(a, b []domain.RankedHit, kConstant, topN int) ([]domain.FusedHit, error) {
	if kConstant <= 0 {
		return nil, fmt.Errorf("%w: rrf constant must be positive, got %d", domain.ErrInvalidConfig, kConstant)
	}
	if topN < 0 {
		return nil, fmt.Errorf("%w: top_n must not be negative, got %d", domain.ErrInvalidConfig, topN)
	}

	fused := make(map[string]*domain.FusedHit, len(a)+len(b))

	accumulate := func(list []domain.RankedHit) {
		for i, hit := range list {
			rank := i + 1
			entry, ok := fused[hit.ChunkID]
			if !ok {
				entry = &domain.FusedHit{ChunkID: hit.ChunkID}
				fused[hit.ChunkID] = entry
			}
			entry.Score += 1.0 / float64(kConstant+rank)
			entry.Sources++
		}
	}
	accumulate(a)
	accumulate(b)

	results := make([]domain.FusedHit, 0, len(fused))
	for _, entry := range fused {
		results = append(results, *entry)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Sources != results[j].Sources {
			return results[i].Sources > results[j].Sources
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}
