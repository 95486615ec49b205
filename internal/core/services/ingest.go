package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/parchment-labs/docq-cli/internal/chunker"
	"github.com/parchment-labs/docq-cli/internal/core/domain"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driven"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driving"
	"github.com/parchment-labs/docq-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the ingestion pipeline: extract text, chunk it,
// persist document and chunks, and feed both indexes. Per-chunk dense
// failures are collected, not fatal: a chunk whose embedding could not
// be computed stays searchable through the sparse index.
type IngestService struct {
	docStore   driven.DocumentStore
	extractor  driven.Extractor
	dense      driven.DenseIndex
	sparse     driven.SparseIndex
	chunking   chunker.Config
	embedModel string
}

// NewIngestService creates an ingestion service. The dense index is
// optional; when nil only the sparse index is populated.
func NewIngestService(
	docStore driven.DocumentStore,
	extractor driven.Extractor,
	dense driven.DenseIndex,
	sparse driven.SparseIndex,
	chunking chunker.Config,
	embedModel string,
) *IngestService {
	return &IngestService{
		docStore:   docStore,
		extractor:  extractor,
		dense:      dense,
		sparse:     sparse,
		chunking:   chunking,
		embedModel: embedModel,
	}
}

// IngestFile extracts, chunks and indexes a file from disk.
func (s *IngestService) IngestFile(ctx context.Context, path string) (*domain.IngestReport, error) {
	text, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return s.ingestText(ctx, filepath.Base(path), path, text)
}

// IngestBytes ingests in-memory file content under the given name.
// Used by the upload endpoint.
func (s *IngestService) IngestBytes(ctx context.Context, name string, content []byte) (*domain.IngestReport, error) {
	text, err := s.extractor.ExtractBytes(ctx, name, content)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}
	return s.ingestText(ctx, name, name, text)
}

func (s *IngestService) ingestText(ctx context.Context, name, uri, text string) (*domain.IngestReport, error) {
	logger.Section("Ingestion")
	logger.Debug("Document: %s", name)

	// Re-ingesting a name replaces the previous document.
	if existing, err := s.docStore.FindByName(ctx, name); err == nil {
		logger.Info("Replacing existing document %s (%s)", name, existing.ID)
		if err := s.Remove(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("replace %s: %w", name, err)
		}
	}

	docID := uuid.New().String()
	chunks, err := chunker.Split(docID, text, s.chunking)
	if err != nil {
		// ErrEmptyDocument propagates so the caller can skip this
		// document and carry on with the rest of the batch.
		return nil, fmt.Errorf("chunk %s: %w", name, err)
	}
	logger.Debug("Produced %d chunks", len(chunks))

	report := &domain.IngestReport{
		DocumentID: docID,
		Name:       name,
		Chunks:     len(chunks),
	}

	for i := range chunks {
		chunk := &chunks[i]

		if err := s.sparse.Add(ctx, chunk.ID, chunk.Content); err != nil {
			report.Failed = append(report.Failed, domain.ChunkFailure{
				ChunkID: chunk.ID,
				Reason:  fmt.Sprintf("sparse index: %v", err),
			})
			continue
		}

		if s.dense != nil {
			if err := s.dense.Add(ctx, chunk.ID, chunk.Content); err != nil {
				logger.Warn("Chunk %s not embedded: %v", chunk.ID, err)
				report.Failed = append(report.Failed, domain.ChunkFailure{
					ChunkID: chunk.ID,
					Reason:  fmt.Sprintf("dense index: %v", err),
				})
				continue
			}
			if vector, ok := s.dense.Vector(chunk.ID); ok {
				chunk.Embedding = vector
			}
		}

		report.Indexed++
	}

	doc := &domain.Document{
		ID:         docID,
		Name:       name,
		URI:        uri,
		Content:    text,
		ChunkCount: len(chunks),
		CreatedAt:  time.Now(),
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document %s: %w", name, err)
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks for %s: %w", name, err)
	}

	logger.Info("Ingested %s: %d/%d chunks indexed", name, report.Indexed, report.Chunks)
	return report, nil
}

// Remove deletes a document and tears down its index entries.
func (s *IngestService) Remove(ctx context.Context, documentID string) error {
	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get chunks for %s: %w", documentID, err)
	}

	for _, chunk := range chunks {
		if err := s.sparse.Remove(ctx, chunk.ID); err != nil {
			return fmt.Errorf("remove %s from sparse index: %w", chunk.ID, err)
		}
		if s.dense != nil {
			if err := s.dense.Remove(ctx, chunk.ID); err != nil {
				return fmt.Errorf("remove %s from dense index: %w", chunk.ID, err)
			}
		}
	}

	return s.docStore.DeleteDocument(ctx, documentID)
}

// RemoveByName deletes the document with the given display name.
func (s *IngestService) RemoveByName(ctx context.Context, name string) error {
	doc, err := s.docStore.FindByName(ctx, name)
	if err != nil {
		return err
	}
	return s.Remove(ctx, doc.ID)
}

// List returns all documents in the corpus.
func (s *IngestService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// Stats returns corpus-level statistics.
func (s *IngestService) Stats(ctx context.Context) (*domain.CorpusStats, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.CorpusStats{Documents: len(docs)}
	for _, doc := range docs {
		stats.Chunks += doc.ChunkCount
	}
	if s.dense != nil {
		stats.EmbeddedChunks = s.dense.Len()
		stats.EmbeddingDims = s.dense.Dimensions()
		stats.EmbeddingModel = s.embedModel
	}
	return stats, nil
}

// RebuildIndexes repopulates both indexes from the persisted corpus.
// Called at startup. Persisted embeddings are reused so the provider
// is not re-queried; chunks without one are re-embedded when a dense
// index is available.
func (s *IngestService) RebuildIndexes(ctx context.Context) error {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	for _, doc := range docs {
		chunks, err := s.docStore.GetChunks(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("get chunks for %s: %w", doc.ID, err)
		}
		for _, chunk := range chunks {
			if err := s.sparse.Add(ctx, chunk.ID, chunk.Content); err != nil {
				return fmt.Errorf("rebuild sparse entry %s: %w", chunk.ID, err)
			}
			if s.dense == nil {
				continue
			}
			if len(chunk.Embedding) > 0 {
				if err := s.dense.AddVector(chunk.ID, chunk.Embedding); err != nil {
					return fmt.Errorf("rebuild dense entry %s: %w", chunk.ID, err)
				}
				continue
			}
			if err := s.dense.Add(ctx, chunk.ID, chunk.Content); err != nil {
				if errors.Is(err, domain.ErrEmbeddingUnavailable) || errors.Is(err, domain.ErrRateLimited) {
					logger.Warn("Chunk %s not re-embedded: %v", chunk.ID, err)
					continue
				}
				return fmt.Errorf("rebuild dense entry %s: %w", chunk.ID, err)
			}
		}
	}

	logger.Info("Rebuilt indexes: %d documents", len(docs))
	return nil
}
