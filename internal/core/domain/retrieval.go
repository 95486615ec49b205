package domain

// RankedHit is a single entry of a ranked result list produced by one
// retriever. Scores from different retrievers use different scales
// (BM25 vs cosine similarity) and must never be compared directly;
// fusion works on rank positions instead.
type RankedHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the retriever-native relevance score.
	Score float64
}

// FusedHit is a single entry of the fused result list. Chunk IDs are
// unique within one fused list.
type FusedHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the reciprocal-rank-fusion score.
	Score float64

	// Sources is the number of input lists the chunk appeared in.
	Sources int
}

// ScoredPassage is a fused retrieval hit resolved back to its chunk,
// annotated with the citation label the answer layer must use.
type ScoredPassage struct {
	// Chunk is the retrieved chunk.
	Chunk Chunk `json:"chunk"`

	// DocumentName is the display name of the source document.
	DocumentName string `json:"document_name"`

	// Score is the fused relevance score.
	Score float64 `json:"score"`

	// Citation is the label for this passage, e.g. "handbook.md §3".
	Citation string `json:"citation"`
}

// RetrievalOptions configures one retrieval call.
type RetrievalOptions struct {
	// TopN is the maximum number of fused passages to return.
	// Zero means the configured default.
	TopN int
}

// RetrievalResult is the output of the retrieval orchestrator.
// An empty Passages slice is a legal outcome meaning "no evidence
// found", not a fault.
type RetrievalResult struct {
	// Passages is the fused, citation-annotated passage set, best first.
	Passages []ScoredPassage

	// Warnings records degraded branches (e.g. the embedding provider
	// being unreachable) that did not fail the whole query.
	Warnings []string
}

// Answer is the result of a full question-answering call.
type Answer struct {
	// Text is the generated answer, or the refusal message when no
	// passage supports an answer.
	Text string `json:"answer"`

	// Passages are the retrieved passages the answer was grounded in.
	Passages []ScoredPassage `json:"passages"`

	// Citations are the distinct citation labels used, in passage order.
	Citations []string `json:"used_citations"`
}

// ChunkFailure records a single chunk that could not be indexed.
type ChunkFailure struct {
	ChunkID string `json:"chunk_id"`
	Reason  string `json:"reason"`
}

// IngestReport summarises ingestion of one document. Ingestion is
// never all-or-nothing: failed chunks are listed alongside the count
// of successfully indexed ones.
type IngestReport struct {
	// DocumentID is the ingested document.
	DocumentID string `json:"document_id"`

	// Name is the document display name.
	Name string `json:"name"`

	// Chunks is the number of chunks produced by the chunker.
	Chunks int `json:"chunks"`

	// Indexed is the number of chunks present in both indexes.
	Indexed int `json:"indexed"`

	// Failed lists chunks that could not be fully indexed. These
	// chunks remain searchable through the sparse index only.
	Failed []ChunkFailure `json:"failed,omitempty"`
}
