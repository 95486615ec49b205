package driven

import "context"

// LLMService produces the prose answer from retrieved passages.
// This is an optional service - when nil, the ask surface is disabled
// and only raw retrieval is available.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini)
//   - Groq or any OpenAI-compatible endpoint
//   - Ollama (local models)
type LLMService interface {
	// Generate produces a completion for the system/user prompt pair.
	Generate(ctx context.Context, system, user string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
