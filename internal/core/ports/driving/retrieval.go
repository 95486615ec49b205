// Package driving provides interfaces consumed by user-facing adapters (primary/inbound ports).
package driving

import (
	"context"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
)

// RetrievalService provides hybrid retrieval to external actors.
type RetrievalService interface {
	// Retrieve returns the fused, citation-annotated passage set for
	// a query. An empty passage set means "no evidence found" and is
	// not an error.
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.RetrievalResult, error)
}

// AnswerService turns a question into a cited answer.
type AnswerService interface {
	// Answer retrieves passages for the question and generates a
	// prose answer constrained to cite only those passages. When no
	// passage supports an answer it returns the refusal text with an
	// empty citation list.
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}
