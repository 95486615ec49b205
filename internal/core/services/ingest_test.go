package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchment-labs/docq-cli/internal/adapters/driven/embedding/embeddingtest"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/extract"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/index/dense"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/index/sparse"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/storage/memory"
	"github.com/parchment-labs/docq-cli/internal/chunker"
	"github.com/parchment-labs/docq-cli/internal/core/domain"
)

// ingestFixture wires an ingest service against real indexes, the
// in-memory store and a deterministic fake embedder.
type ingestFixture struct {
	svc      *IngestService
	store    *memory.DocumentStore
	dense    *dense.Index
	sparse   *sparse.Index
	embedder *embeddingtest.Fake
}

func newIngestFixture(t *testing.T, chunking chunker.Config) *ingestFixture {
	t.Helper()

	embedder := embeddingtest.New()
	denseIdx, err := dense.New(embedder, dense.Config{
		MaxAttempts: 1,
		Backoff:     time.Millisecond,
	})
	require.NoError(t, err)

	store := memory.NewDocumentStore()
	sparseIdx := sparse.New()

	return &ingestFixture{
		svc:      NewIngestService(store, extract.New(), denseIdx, sparseIdx, chunking, "fake-embed"),
		store:    store,
		dense:    denseIdx,
		sparse:   sparseIdx,
		embedder: embedder,
	}
}

func TestIngestBytes_SingleChunk(t *testing.T) {
	fx := newIngestFixture(t, chunker.Config{ChunkSize: 200, Overlap: 40})
	ctx := context.Background()

	report, err := fx.svc.IngestBytes(ctx, "handbook.txt", []byte("Employees receive 25 days annual leave"))
	require.NoError(t, err)
	assert.Equal(t, "handbook.txt", report.Name)
	assert.Equal(t, 1, report.Chunks)
	assert.Equal(t, 1, report.Indexed)
	assert.Empty(t, report.Failed)

	doc, err := fx.store.GetDocument(ctx, report.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.ChunkCount)

	chunks, err := fx.store.GetChunks(ctx, report.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, report.DocumentID+"#0000", chunks[0].ID)
	assert.Len(t, chunks[0].Embedding, embeddingtest.Dims, "embedding is persisted with the chunk")

	assert.Equal(t, 1, fx.sparse.Len())
	assert.Equal(t, 1, fx.dense.Len())
}

func TestIngestBytes_EmptyDocument(t *testing.T) {
	fx := newIngestFixture(t, chunker.Config{ChunkSize: 200, Overlap: 40})

	_, err := fx.svc.IngestBytes(context.Background(), "empty.txt", []byte("   \n\t "))
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)

	docs, err := fx.store.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs, "a rejected document leaves no trace")
}

func TestIngestBytes_PartialEmbeddingFailure(t *testing.T) {
	fx := newIngestFixture(t, chunker.Config{ChunkSize: 5, Overlap: 1})
	ctx := context.Background()

	// First embedding call fails; with MaxAttempts 1 that chunk is not
	// retried and must be reported, not fatal.
	fx.embedder.FailNext(1, domain.ErrEmbeddingUnavailable)

	text := "one two three four five six seven eight nine ten eleven twelve thirteen"
	report, err := fx.svc.IngestBytes(ctx, "numbers.txt", []byte(text))
	require.NoError(t, err, "per-chunk embedding failures must not fail ingestion")

	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, 2, report.Indexed)
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Reason, "dense index")

	// The failed chunk stays searchable through the sparse index.
	assert.Equal(t, 3, fx.sparse.Len())
	assert.Equal(t, 2, fx.dense.Len())

	chunks, err := fx.store.GetChunks(ctx, report.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Nil(t, chunks[0].Embedding, "unembedded chunk is stored without a vector")
	assert.NotNil(t, chunks[1].Embedding)
}

func TestIngestBytes_ReplacesExistingName(t *testing.T) {
	fx := newIngestFixture(t, chunker.Config{ChunkSize: 200, Overlap: 40})
	ctx := context.Background()

	first, err := fx.svc.IngestBytes(ctx, "policy.txt", []byte("old policy content"))
	require.NoError(t, err)

	second, err := fx.svc.IngestBytes(ctx, "policy.txt", []byte("new policy content"))
	require.NoError(t, err)
	assert.NotEqual(t, first.DocumentID, second.DocumentID)

	docs, err := fx.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "new policy content", docs[0].Content)

	_, err = fx.store.GetDocument(ctx, first.DocumentID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 1, fx.sparse.Len(), "old index entries are torn down")
	assert.Equal(t, 1, fx.dense.Len())
}

func TestRemoveByName(t *testing.T) {
	fx := newIngestFixture(t, chunker.Config{ChunkSize: 200, Overlap: 40})
	ctx := context.Background()

	_, err := fx.svc.IngestBytes(ctx, "policy.txt", []byte("some policy content"))
	require.NoError(t, err)

	require.NoError(t, fx.svc.RemoveByName(ctx, "policy.txt"))
	assert.Equal(t, 0, fx.sparse.Len())
	assert.Equal(t, 0, fx.dense.Len())

	docs, err := fx.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	err = fx.svc.RemoveByName(ctx, "policy.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStats(t *testing.T) {
	fx := newIngestFixture(t, chunker.Config{ChunkSize: 5, Overlap: 1})
	ctx := context.Background()

	_, err := fx.svc.IngestBytes(ctx, "a.txt",
		[]byte("one two three four five six seven eight nine ten eleven twelve thirteen"))
	require.NoError(t, err)
	_, err = fx.svc.IngestBytes(ctx, "b.txt", []byte("short note"))
	require.NoError(t, err)

	stats, err := fx.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 4, stats.Chunks)
	assert.Equal(t, 4, stats.EmbeddedChunks)
	assert.Equal(t, embeddingtest.Dims, stats.EmbeddingDims)
	assert.Equal(t, "fake-embed", stats.EmbeddingModel)
}

func TestRebuildIndexes_ReusesPersistedEmbeddings(t *testing.T) {
	cfg := chunker.Config{ChunkSize: 5, Overlap: 1}
	fx := newIngestFixture(t, cfg)
	ctx := context.Background()

	_, err := fx.svc.IngestBytes(ctx, "a.txt",
		[]byte("one two three four five six seven eight nine ten eleven twelve thirteen"))
	require.NoError(t, err)

	// Fresh indexes over the same store, as at process startup.
	embedder := embeddingtest.New()
	denseIdx, err := dense.New(embedder, dense.Config{MaxAttempts: 1, Backoff: time.Millisecond})
	require.NoError(t, err)
	sparseIdx := sparse.New()
	rebuilt := NewIngestService(fx.store, extract.New(), denseIdx, sparseIdx, cfg, "fake-embed")

	require.NoError(t, rebuilt.RebuildIndexes(ctx))
	assert.Equal(t, 3, sparseIdx.Len())
	assert.Equal(t, 3, denseIdx.Len())
	assert.Equal(t, 0, embedder.Calls, "persisted embeddings must not be recomputed")
}

// The full pipeline: ingest one document, then a lexical question must
// surface its chunk as the top fused result with a citation pointing
// back at the source.
func TestIngestAndRetrieve_EndToEnd(t *testing.T) {
	fx := newIngestFixture(t, chunker.Config{ChunkSize: 200, Overlap: 40})
	ctx := context.Background()

	_, err := fx.svc.IngestBytes(ctx, "handbook.txt", []byte("Employees receive 25 days annual leave"))
	require.NoError(t, err)

	retriever := NewRetrievalService(fx.store, fx.dense, fx.sparse, testRetrievalSettings())
	result, err := retriever.Retrieve(ctx, "how many annual leave days", domain.RetrievalOptions{})
	require.NoError(t, err)

	require.Len(t, result.Passages, 1)
	top := result.Passages[0]
	assert.Equal(t, "Employees receive 25 days annual leave", top.Chunk.Content)
	assert.Equal(t, "handbook.txt", top.DocumentName)
	assert.Equal(t, "handbook.txt §1", top.Citation)
	assert.Greater(t, top.Score, 0.0)
}
