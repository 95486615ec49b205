package cli

import (
	"testing"

	"github.com/parchment-labs/docq-cli/internal/adapters/driven/embedding/embeddingtest"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/extract"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/index/dense"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/index/sparse"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/storage/memory"
	"github.com/parchment-labs/docq-cli/internal/chunker"
	"github.com/parchment-labs/docq-cli/internal/core/domain"
	"github.com/parchment-labs/docq-cli/internal/core/services"
)

// setupTestServices wires the package-level services against in-memory
// adapters so commands run without config files, a database or
// providers. The returned cleanup restores the previous wiring.
func setupTestServices(t *testing.T) func() {
	t.Helper()

	prevIngest := ingestService
	prevRetrieval := retrievalService
	prevAnswer := answerService
	prevExtractor := extractor

	denseIdx, err := dense.New(embeddingtest.New(), dense.Config{})
	if err != nil {
		t.Fatalf("dense index: %v", err)
	}
	sparseIdx := sparse.New()
	store := memory.NewDocumentStore()
	extractor = extract.New()

	chunking := chunker.Config{ChunkSize: 200, Overlap: 40}
	ingestService = services.NewIngestService(store, extractor, denseIdx, sparseIdx, chunking, "fake-embed")
	retrievalService = services.NewRetrievalService(store, denseIdx, sparseIdx, domain.RetrievalSettings{
		TopN:            5,
		OverFetchFactor: 3,
		RRFConstant:     60,
	})
	answerService = services.NewAnswerService(retrievalService, nil, domain.AnswerSettings{
		MaxContextChars: 2500,
		MaxCitations:    3,
	})

	return func() {
		ingestService = prevIngest
		retrievalService = prevRetrieval
		answerService = prevAnswer
		extractor = prevExtractor
	}
}
