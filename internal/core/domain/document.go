package domain

import "time"

// Document represents an uploaded file after text extraction.
// It is the canonical representation before chunking.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the display name, usually the original filename.
	// It is what citation labels point at.
	Name string

	// URI is the original location (file path, upload name, etc).
	URI string

	// Content is the full extracted text before chunking.
	Content string

	// ChunkCount is the number of chunks produced at ingestion.
	ChunkCount int

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time
}

// Chunk is a contiguous span of text extracted from one document.
// Chunks are immutable after creation and are the unit of retrieval;
// both indexes and all citations refer to chunks by ID.
type Chunk struct {
	// ID is unique within the corpus. It is derived from the document
	// ID and the ordinal, so re-ingesting the same document with the
	// same parameters reproduces the same IDs.
	ID string `json:"id"`

	// DocumentID links to the parent Document.
	DocumentID string `json:"document_id"`

	// Ordinal is the position within the document (0-based).
	Ordinal int `json:"ordinal"`

	// Content is the text content of this chunk.
	Content string `json:"content"`

	// StartOffset and EndOffset are byte offsets into the document
	// content. They are carried for citation display.
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`

	// TokenCount is the number of whitespace tokens in the chunk.
	TokenCount int `json:"token_count"`

	// Embedding is the vector representation, populated once the
	// embedding provider has processed the chunk. Empty when the
	// dense branch failed or is disabled. Never serialised.
	Embedding []float32 `json:"-"`
}

// CorpusStats summarises the indexed corpus for display and the
// stats endpoint.
type CorpusStats struct {
	Documents      int    `json:"documents"`
	Chunks         int    `json:"chunks"`
	EmbeddedChunks int    `json:"embedded_chunks"`
	EmbeddingDims  int    `json:"embedding_dims,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}
