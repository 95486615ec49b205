package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
	"github.com/parchment-labs/docq-cli/internal/core/fusion"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driven"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driving"
	"github.com/parchment-labs/docq-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService is the hybrid retrieval orchestrator: it queries
// the dense and sparse indexes concurrently, fuses the two ranked
// lists with RRF, and resolves the survivors into cited passages.
type RetrievalService struct {
	docStore driven.DocumentStore
	dense    driven.DenseIndex
	sparse   driven.SparseIndex
	cfg      domain.RetrievalSettings
}

// NewRetrievalService creates a retrieval orchestrator. The dense
// index is optional (nil disables the semantic branch entirely and
// retrieval runs sparse-only).
func NewRetrievalService(
	docStore driven.DocumentStore,
	dense driven.DenseIndex,
	sparse driven.SparseIndex,
	cfg domain.RetrievalSettings,
) *RetrievalService {
	return &RetrievalService{
		docStore: docStore,
		dense:    dense,
		sparse:   sparse,
		cfg:      cfg,
	}
}

// Retrieve returns the fused, citation-annotated passage set for a
// query. Both index queries run concurrently; fusion waits for both
// (or for the surviving branch when one fails). An empty result means
// no passage supports an answer and is not an error; only both
// branches failing surfaces as one.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) (*domain.RetrievalResult, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no passages")
		return &domain.RetrievalResult{}, nil
	}

	topN := opts.TopN
	if topN <= 0 {
		topN = s.cfg.TopN
	}

	// Over-fetch per branch so fusion has enough recall to re-rank.
	fetchK := topN * s.cfg.OverFetchFactor
	logger.Debug("TopN: %d, per-index limit: %d", topN, fetchK)

	denseHits, sparseHits, warnings, err := s.queryBranches(ctx, query, fetchK)
	if err != nil {
		return nil, err
	}

	fused, err := fusion.Fuse(denseHits, sparseHits, s.cfg.RRFConstant, topN)
	if err != nil {
		return nil, fmt.Errorf("fuse results: %w", err)
	}
	logger.Debug("Fused %d dense + %d sparse hits into %d", len(denseHits), len(sparseHits), len(fused))

	passages, err := s.hydrate(ctx, fused)
	if err != nil {
		return nil, fmt.Errorf("hydrate passages: %w", err)
	}
	logger.Info("Retrieved %d passages", len(passages))

	return &domain.RetrievalResult{Passages: passages, Warnings: warnings}, nil
}

// queryBranches runs the two index queries concurrently and applies
// the degradation policy: one failed branch becomes a warning, both
// failing becomes an error.
func (s *RetrievalService) queryBranches(
	ctx context.Context, query string, fetchK int,
) (denseHits, sparseHits []domain.RankedHit, warnings []string, err error) {
	var denseErr, sparseErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if s.dense == nil {
			logger.Debug("Dense branch disabled, sparse-only retrieval")
			return
		}
		denseHits, denseErr = s.dense.Query(ctx, query, fetchK)
	}()

	go func() {
		defer wg.Done()
		sparseHits, sparseErr = s.sparse.Query(ctx, query, fetchK)
	}()

	wg.Wait()

	if denseErr != nil && sparseErr != nil {
		logger.Warn("Both retrieval branches failed: dense=%v, sparse=%v", denseErr, sparseErr)
		return nil, nil, nil, fmt.Errorf("%w: dense: %w; sparse: %w",
			domain.ErrRetrievalUnavailable, denseErr, sparseErr)
	}
	if denseErr != nil {
		logger.Warn("Dense retrieval failed, degrading to sparse-only: %v", denseErr)
		warnings = append(warnings, fmt.Sprintf("dense retrieval degraded: %v", denseErr))
		denseHits = nil
	}
	if sparseErr != nil {
		logger.Warn("Sparse retrieval failed, using dense results only: %v", sparseErr)
		warnings = append(warnings, fmt.Sprintf("sparse retrieval degraded: %v", sparseErr))
		sparseHits = nil
	}
	return denseHits, sparseHits, warnings, nil
}

// hydrate resolves fused chunk IDs back to chunks and builds citation
// labels. Chunks deleted since indexing are skipped.
func (s *RetrievalService) hydrate(ctx context.Context, fused []domain.FusedHit) ([]domain.ScoredPassage, error) {
	passages := make([]domain.ScoredPassage, 0, len(fused))
	docs := make(map[string]*domain.Document)

	for _, hit := range fused {
		chunk, err := s.docStore.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("Chunk %s no longer exists, skipping", hit.ChunkID)
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}

		doc, ok := docs[chunk.DocumentID]
		if !ok {
			doc, err = s.docStore.GetDocument(ctx, chunk.DocumentID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
			}
			docs[chunk.DocumentID] = doc
		}

		passages = append(passages, domain.ScoredPassage{
			Chunk:        *chunk,
			DocumentName: doc.Name,
			Score:        hit.Score,
			Citation:     CitationLabel(doc.Name, chunk),
		})
	}
	return passages, nil
}

// CitationLabel builds the citation for a chunk: document name plus
// the section ordinal (1-based, matching what readers count).
func CitationLabel(docName string, chunk *domain.Chunk) string {
	return fmt.Sprintf("%s §%d", docName, chunk.Ordinal+1)
}
