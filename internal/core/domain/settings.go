package domain

import "fmt"

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI cloud API (or any
	// OpenAI-compatible endpoint).
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderNone disables the dense branch entirely;
	// retrieval runs sparse-only.
	EmbeddingProviderNone EmbeddingProvider = "none"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderOllama, EmbeddingProviderOpenAI, EmbeddingProviderNone:
		return true
	default:
		return false
	}
}

// ChunkingSettings controls how documents are split at ingestion.
type ChunkingSettings struct {
	// ChunkSize is the maximum chunk length in tokens.
	ChunkSize int `toml:"chunk_size"`

	// Overlap is the number of tokens shared by consecutive chunks.
	// Must be strictly smaller than ChunkSize.
	Overlap int `toml:"overlap"`
}

// RetrievalSettings controls the hybrid retrieval pipeline.
type RetrievalSettings struct {
	// TopN is the default number of fused passages returned.
	TopN int `toml:"top_n"`

	// OverFetchFactor multiplies TopN for the per-index candidate
	// limit, so fusion has enough recall to re-rank.
	OverFetchFactor int `toml:"over_fetch_factor"`

	// RRFConstant is the smoothing constant k in 1/(k+rank).
	// Must be positive.
	RRFConstant int `toml:"rrf_constant"`
}

// ProviderSettings configures the external AI services.
type ProviderSettings struct {
	// Embedding selects the embedding backend.
	Embedding EmbeddingProvider `toml:"embedding"`

	// EmbeddingModel is the embedding model name.
	EmbeddingModel string `toml:"embedding_model"`

	// EmbeddingBaseURL overrides the provider base URL.
	EmbeddingBaseURL string `toml:"embedding_base_url"`

	// LLMModel is the chat model used for answer generation.
	LLMModel string `toml:"llm_model"`

	// LLMBaseURL overrides the chat API base URL. Any
	// OpenAI-compatible endpoint works (OpenAI, Groq, LM Studio).
	LLMBaseURL string `toml:"llm_base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`
}

// AnswerSettings controls answer assembly.
type AnswerSettings struct {
	// MaxContextChars bounds the context handed to the LLM.
	MaxContextChars int `toml:"max_context_chars"`

	// MaxCitations bounds the number of distinct citations.
	MaxCitations int `toml:"max_citations"`
}

// Settings is the complete runtime configuration.
type Settings struct {
	Chunking  ChunkingSettings  `toml:"chunking"`
	Retrieval RetrievalSettings `toml:"retrieval"`
	Provider  ProviderSettings  `toml:"provider"`
	Answer    AnswerSettings    `toml:"answer"`
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() Settings {
	return Settings{
		Chunking: ChunkingSettings{
			ChunkSize: 200,
			Overlap:   40,
		},
		Retrieval: RetrievalSettings{
			TopN:            5,
			OverFetchFactor: 3,
			RRFConstant:     60,
		},
		Provider: ProviderSettings{
			Embedding:      EmbeddingProviderOllama,
			EmbeddingModel: "nomic-embed-text",
			LLMModel:       "llama-3.1-8b-instant",
			APIKeyEnv:      "DOCQ_API_KEY",
		},
		Answer: AnswerSettings{
			MaxContextChars: 2500,
			MaxCitations:    3,
		},
	}
}

// Validate checks the settings for consistency. All violations wrap
// ErrInvalidConfig so callers can treat them as fatal startup errors.
func (s Settings) Validate() error {
	if s.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, s.Chunking.ChunkSize)
	}
	if s.Chunking.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidConfig, s.Chunking.Overlap)
	}
	if s.Chunking.Overlap >= s.Chunking.ChunkSize {
		return fmt.Errorf("%w: overlap (%d) must be smaller than chunk_size (%d)",
			ErrInvalidConfig, s.Chunking.Overlap, s.Chunking.ChunkSize)
	}
	if s.Retrieval.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive, got %d", ErrInvalidConfig, s.Retrieval.TopN)
	}
	if s.Retrieval.OverFetchFactor < 1 {
		return fmt.Errorf("%w: over_fetch_factor must be at least 1, got %d",
			ErrInvalidConfig, s.Retrieval.OverFetchFactor)
	}
	if s.Retrieval.RRFConstant <= 0 {
		return fmt.Errorf("%w: rrf_constant must be positive, got %d",
			ErrInvalidConfig, s.Retrieval.RRFConstant)
	}
	if !s.Provider.Embedding.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, s.Provider.Embedding)
	}
	if s.Answer.MaxContextChars <= 0 {
		return fmt.Errorf("%w: max_context_chars must be positive, got %d",
			ErrInvalidConfig, s.Answer.MaxContextChars)
	}
	if s.Answer.MaxCitations <= 0 {
		return fmt.Errorf("%w: max_citations must be positive, got %d",
			ErrInvalidConfig, s.Answer.MaxCitations)
	}
	return nil
}
