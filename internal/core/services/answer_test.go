package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driven"
)

// mockRetriever implements driving.RetrievalService for testing.
type mockRetriever struct {
	result *domain.RetrievalResult
	err    error
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, _ domain.RetrievalOptions) (*domain.RetrievalResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	reply    string
	err      error
	calls    int
	lastUser string
}

func (m *mockLLM) Generate(_ context.Context, _, user string, _ driven.GenerateOptions) (string, error) {
	m.calls++
	m.lastUser = user
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string { return "fake-llm" }

func (m *mockLLM) Ping(context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

func testAnswerSettings() domain.AnswerSettings {
	return domain.AnswerSettings{MaxContextChars: 2500, MaxCitations: 3}
}

func passage(chunkID, content, citation string) domain.ScoredPassage {
	return domain.ScoredPassage{
		Chunk:        domain.Chunk{ID: chunkID, Content: content},
		DocumentName: "handbook.txt",
		Score:        1.0,
		Citation:     citation,
	}
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	svc := NewAnswerService(&mockRetriever{}, &mockLLM{}, testAnswerSettings())

	_, err := svc.Answer(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswer_NoPassagesRefuses(t *testing.T) {
	retriever := &mockRetriever{result: &domain.RetrievalResult{}}
	llm := &mockLLM{reply: "should never be called"}
	svc := NewAnswerService(retriever, llm, testAnswerSettings())

	answer, err := svc.Answer(context.Background(), "how many leave days")
	require.NoError(t, err)
	assert.Equal(t, RefusalText, answer.Text)
	assert.Empty(t, answer.Citations)
	assert.Zero(t, llm.calls, "the model never sees an empty context")
}

func TestAnswer_RetrieverErrorPropagates(t *testing.T) {
	retriever := &mockRetriever{err: domain.ErrRetrievalUnavailable}
	svc := NewAnswerService(retriever, &mockLLM{}, testAnswerSettings())

	_, err := svc.Answer(context.Background(), "question")
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestAnswer_GroundedReply(t *testing.T) {
	retriever := &mockRetriever{result: &domain.RetrievalResult{
		Passages: []domain.ScoredPassage{
			passage("d1#0000", "Employees receive 25 days annual leave", "handbook.txt §1"),
		},
	}}
	llm := &mockLLM{reply: "Employees get 25 days. [source: handbook.txt §1]"}
	svc := NewAnswerService(retriever, llm, testAnswerSettings())

	answer, err := svc.Answer(context.Background(), "how many leave days")
	require.NoError(t, err)
	assert.Equal(t, "Employees get 25 days. [source: handbook.txt §1]", answer.Text)
	assert.Equal(t, []string{"handbook.txt §1"}, answer.Citations)
	require.Len(t, answer.Passages, 1)

	assert.Contains(t, llm.lastUser, "how many leave days")
	assert.Contains(t, llm.lastUser, "Employees receive 25 days annual leave")
}

func TestAnswer_GuardrailRefusesUncitedReply(t *testing.T) {
	retriever := &mockRetriever{result: &domain.RetrievalResult{
		Passages: []domain.ScoredPassage{
			passage("d1#0000", "Employees receive 25 days annual leave", "handbook.txt §1"),
		},
	}}
	llm := &mockLLM{reply: "42 days, everybody knows that."}
	svc := NewAnswerService(retriever, llm, testAnswerSettings())

	answer, err := svc.Answer(context.Background(), "how many leave days")
	require.NoError(t, err)
	assert.Equal(t, RefusalText, answer.Text, "an uncited reply is discarded")
	assert.Len(t, answer.Passages, 1, "passages stay available for inspection")
}

func TestAnswer_ModelRefusalPassesThrough(t *testing.T) {
	retriever := &mockRetriever{result: &domain.RetrievalResult{
		Passages: []domain.ScoredPassage{
			passage("d1#0000", "Employees receive 25 days annual leave", "handbook.txt §1"),
		},
	}}
	llm := &mockLLM{reply: RefusalText}
	svc := NewAnswerService(retriever, llm, testAnswerSettings())

	answer, err := svc.Answer(context.Background(), "what is the office wifi password")
	require.NoError(t, err)
	assert.Equal(t, RefusalText, answer.Text)
}

func TestAnswer_ExtractiveFallbackWithoutLLM(t *testing.T) {
	retriever := &mockRetriever{result: &domain.RetrievalResult{
		Passages: []domain.ScoredPassage{
			passage("d1#0000", "Employees receive 25 days annual leave", "handbook.txt §1"),
			passage("d1#0001", "Leave carries over one quarter", "handbook.txt §2"),
		},
	}}
	svc := NewAnswerService(retriever, nil, testAnswerSettings())

	answer, err := svc.Answer(context.Background(), "how many leave days")
	require.NoError(t, err)
	assert.Equal(t, "Employees receive 25 days annual leave [source: handbook.txt §1]", answer.Text)
	assert.Equal(t, []string{"handbook.txt §1"}, answer.Citations)
}

func TestAnswer_LLMFailure(t *testing.T) {
	retriever := &mockRetriever{result: &domain.RetrievalResult{
		Passages: []domain.ScoredPassage{
			passage("d1#0000", "some content", "handbook.txt §1"),
		},
	}}
	llm := &mockLLM{err: errors.New("connection refused")}
	svc := NewAnswerService(retriever, llm, testAnswerSettings())

	_, err := svc.Answer(context.Background(), "question")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Equal(t, llmMaxAttempts, llm.calls, "transient failures are retried")
}

func TestAnswer_CancelledContextStopsRetries(t *testing.T) {
	retriever := &mockRetriever{result: &domain.RetrievalResult{
		Passages: []domain.ScoredPassage{
			passage("d1#0000", "some content", "handbook.txt §1"),
		},
	}}
	llm := &mockLLM{err: context.Canceled}
	svc := NewAnswerService(retriever, llm, testAnswerSettings())

	_, err := svc.Answer(context.Background(), "question")
	assert.Error(t, err)
	assert.Equal(t, 1, llm.calls, "cancellation must not be retried")
}

func TestAnswer_ContextBounded(t *testing.T) {
	long := passage("d1#0000", "Employees receive 25 days annual leave", "handbook.txt §1")
	dropped := passage("d1#0001", "This passage must not fit into the window", "handbook.txt §2")
	retriever := &mockRetriever{result: &domain.RetrievalResult{
		Passages: []domain.ScoredPassage{long, dropped},
	}}
	llm := &mockLLM{reply: "25 days [source: handbook.txt §1]"}

	// Window large enough for the first block only. The first passage
	// is always included, even when it alone exceeds the bound.
	svc := NewAnswerService(retriever, llm, domain.AnswerSettings{MaxContextChars: 80, MaxCitations: 3})

	_, err := svc.Answer(context.Background(), "how many leave days")
	require.NoError(t, err)
	assert.Contains(t, llm.lastUser, "Employees receive 25 days annual leave")
	assert.NotContains(t, llm.lastUser, "This passage must not fit")
}

func TestAnswer_CitationsCapped(t *testing.T) {
	retriever := &mockRetriever{result: &domain.RetrievalResult{
		Passages: []domain.ScoredPassage{
			passage("d1#0000", "alpha", "handbook.txt §1"),
			passage("d1#0001", "beta", "handbook.txt §2"),
			passage("d1#0002", "gamma", "handbook.txt §3"),
		},
	}}
	llm := &mockLLM{reply: "alpha [source: handbook.txt §1]"}
	svc := NewAnswerService(retriever, llm, domain.AnswerSettings{MaxContextChars: 2500, MaxCitations: 2})

	answer, err := svc.Answer(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, []string{"handbook.txt §1", "handbook.txt §2"}, answer.Citations)
}
