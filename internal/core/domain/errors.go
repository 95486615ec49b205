package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates invalid parameters. Configuration
	// errors are fatal at startup, not recoverable at query time.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocument indicates a document produced no text. The
	// document is skipped; ingestion of other documents continues.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrUnsupportedFormat indicates an unknown document format.
	// The single document is rejected, the batch continues.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrCorruptFile indicates a document that could not be parsed.
	ErrCorruptFile = errors.New("corrupt document")

	// ErrEmbeddingUnavailable indicates the embedding provider could
	// not be reached. Retryable; queries degrade to sparse-only.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrRateLimited indicates the provider rejected the request due
	// to rate limiting. Treated the same as unavailability: retry
	// with backoff, then degrade.
	ErrRateLimited = errors.New("rate limited")

	// ErrDimensionMismatch indicates a vector whose dimensionality
	// does not match the index. Dimensionality is fixed for the
	// process lifetime by the embedding model in use.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrLLMUnavailable indicates the language model service is not
	// configured or unreachable. Answering degrades to a refusal.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrRetrievalUnavailable indicates both retrieval branches
	// failed. This is the only query-time condition surfaced as an
	// error rather than an empty result.
	ErrRetrievalUnavailable = errors.New("all retrieval branches failed")
)
