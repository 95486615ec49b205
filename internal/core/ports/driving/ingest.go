package driving

import (
	"context"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
)

// IngestService manages the document corpus.
type IngestService interface {
	// IngestFile extracts, chunks and indexes a file from disk.
	IngestFile(ctx context.Context, path string) (*domain.IngestReport, error)

	// IngestBytes ingests in-memory file content under the given name.
	IngestBytes(ctx context.Context, name string, content []byte) (*domain.IngestReport, error)

	// Remove deletes a document and all its index entries.
	Remove(ctx context.Context, documentID string) error

	// RemoveByName deletes the document with the given display name.
	RemoveByName(ctx context.Context, name string) error

	// List returns all documents in the corpus.
	List(ctx context.Context) ([]domain.Document, error)

	// Stats returns corpus-level statistics.
	Stats(ctx context.Context) (*domain.CorpusStats, error)
}
