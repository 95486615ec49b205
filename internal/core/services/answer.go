package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driven"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driving"
	"github.com/parchment-labs/docq-cli/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// RefusalText is returned when no retrieved passage supports an
// answer, or when the model failed to ground its reply in the
// supplied context.
const RefusalText = "Not specified in the provided documents."

// systemPrompt constrains the model to the retrieved passages.
const systemPrompt = `You are a document assistant.
Follow these rules strictly:
1) Use ONLY the provided CONTEXT. Do not use outside knowledge.
2) Include 1-3 citations in the exact form: [source: filename §N].
3) If the answer is not clearly supported by the context, reply exactly: ` + RefusalText

// answerTemplate is the user prompt layout.
const answerTemplate = `USER QUESTION:
%s

CONTEXT (from uploaded documents):
%s

INSTRUCTIONS:
- Answer ONLY based on the context above.
- If not supported, reply exactly: %s
- Always add 1-3 citations like [source: filename §N].`

// LLM retry behaviour.
const (
	llmMaxAttempts = 2
	llmBackoff     = time.Second
)

// AnswerService assembles cited answers on top of hybrid retrieval.
// The language model only ever sees retrieved passages; a reply
// without a citation marker is discarded in favour of the refusal, so
// the caller never receives an ungrounded answer.
type AnswerService struct {
	retriever driving.RetrievalService
	llm       driven.LLMService
	cfg       domain.AnswerSettings
}

// NewAnswerService creates an answer service. The LLM is optional:
// when nil, answers fall back to quoting the best passage verbatim.
func NewAnswerService(retriever driving.RetrievalService, llm driven.LLMService, cfg domain.AnswerSettings) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		llm:       llm,
		cfg:       cfg,
	}
}

// Answer retrieves passages for the question and generates a prose
// answer constrained to cite only those passages.
func (s *AnswerService) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	result, err := s.retriever.Retrieve(ctx, question, domain.RetrievalOptions{})
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	if len(result.Passages) == 0 {
		logger.Info("No supporting passages, refusing")
		return &domain.Answer{Text: RefusalText}, nil
	}

	contextBlock, citations := s.buildContext(result.Passages)

	if s.llm == nil {
		// Extractive fallback: quote the best passage with its citation.
		best := result.Passages[0]
		return &domain.Answer{
			Text:      fmt.Sprintf("%s [source: %s]", strings.TrimSpace(best.Chunk.Content), best.Citation),
			Passages:  result.Passages,
			Citations: citations[:1],
		}, nil
	}

	user := fmt.Sprintf(answerTemplate, question, contextBlock, RefusalText)
	text, err := s.generateWithRetry(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	// Guardrail: an answer without a citation marker is not grounded.
	if !strings.Contains(text, "[source:") && !strings.Contains(text, RefusalText) {
		logger.Warn("Model reply carried no citation, refusing")
		return &domain.Answer{Text: RefusalText, Passages: result.Passages}, nil
	}

	return &domain.Answer{
		Text:      strings.TrimSpace(text),
		Passages:  result.Passages,
		Citations: citations,
	}, nil
}

// buildContext renders passages as cited blocks, bounded by
// MaxContextChars, and collects up to MaxCitations distinct labels.
func (s *AnswerService) buildContext(passages []domain.ScoredPassage) (string, []string) {
	var b strings.Builder
	var citations []string
	seen := make(map[string]bool)

	for _, p := range passages {
		block := fmt.Sprintf("[source: %s]\n%s\n\n", p.Citation, strings.TrimSpace(p.Chunk.Content))
		if b.Len() > 0 && b.Len()+len(block) > s.cfg.MaxContextChars {
			break
		}
		b.WriteString(block)

		if !seen[p.Citation] && len(citations) < s.cfg.MaxCitations {
			seen[p.Citation] = true
			citations = append(citations, p.Citation)
		}
	}
	return strings.TrimSpace(b.String()), citations
}

// generateWithRetry calls the model, retrying transient failures once
// with backoff. Context cancellation stops the retry loop.
func (s *AnswerService) generateWithRetry(ctx context.Context, user string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= llmMaxAttempts; attempt++ {
		text, err := s.llm.Generate(ctx, systemPrompt, user, driven.GenerateOptions{
			MaxTokens:   256,
			Temperature: 0.3,
		})
		if err == nil {
			return text, nil
		}
		lastErr = err
		logger.Warn("LLM attempt %d/%d failed: %v", attempt, llmMaxAttempts, err)

		if attempt == llmMaxAttempts || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(llmBackoff * time.Duration(attempt)):
		}
	}
	return "", lastErr
}
