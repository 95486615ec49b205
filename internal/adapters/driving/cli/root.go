// Package cli provides the command-line interface for docq.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	configfile "github.com/parchment-labs/docq-cli/internal/adapters/driven/config/file"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/parchment-labs/docq-cli/internal/adapters/driven/embedding/openai"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/extract"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/index/dense"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/index/sparse"
	openaillm "github.com/parchment-labs/docq-cli/internal/adapters/driven/llm/openai"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/storage/sqlite"
	"github.com/parchment-labs/docq-cli/internal/chunker"
	"github.com/parchment-labs/docq-cli/internal/core/domain"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driven"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driving"
	"github.com/parchment-labs/docq-cli/internal/core/services"
	"github.com/parchment-labs/docq-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Persistent flags.
var (
	verbose   bool
	configDir string
	dataDir   string
)

// Services wired at startup. Tests inject their own and skip the
// bootstrap entirely.
var (
	settings         domain.Settings
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
	answerService    driving.AnswerService
	extractor        driven.Extractor
	storeCloser      io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "docq",
	Short: "Ask questions about your documents",
	Long: `docq ingests local documents and answers questions about them.

Retrieval is hybrid: a BM25 keyword index and an embedding index are
queried in parallel and their rankings fused, so answers hold up for
both exact-term and paraphrased questions. Every answer cites the
document and section it came from.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		if ingestService != nil {
			return nil
		}
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		return initServices(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.docq)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.docq/data)")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// initServices loads settings and wires the full service graph:
// storage, indexes, providers, ingestion, retrieval, answering.
func initServices(ctx context.Context) error {
	configStore, err := configfile.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settings, err = configStore.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("open corpus store: %w", err)
	}
	storeCloser = store

	sparseIdx := sparse.New()
	denseIdx, embedModel, err := buildDenseIndex(settings.Provider)
	if err != nil {
		return err
	}

	extractor = extract.New()
	chunking := chunker.Config{
		ChunkSize: settings.Chunking.ChunkSize,
		Overlap:   settings.Chunking.Overlap,
	}

	ingest := services.NewIngestService(store, extractor, denseIdx, sparseIdx, chunking, embedModel)
	if err := ingest.RebuildIndexes(ctx); err != nil {
		return fmt.Errorf("rebuild indexes: %w", err)
	}
	ingestService = ingest

	retrievalService = services.NewRetrievalService(store, denseIdx, sparseIdx, settings.Retrieval)

	llm := buildLLM(settings.Provider)
	answerService = services.NewAnswerService(retrievalService, llm, settings.Answer)

	return nil
}

// buildDenseIndex constructs the embedding provider and dense index
// per settings. Provider "none" disables the semantic branch and
// returns a nil index, which the services treat as sparse-only mode.
func buildDenseIndex(provider domain.ProviderSettings) (driven.DenseIndex, string, error) {
	var embedder driven.EmbeddingService

	switch provider.Embedding {
	case domain.EmbeddingProviderNone:
		return nil, "", nil

	case domain.EmbeddingProviderOllama:
		embedder = ollama.NewEmbeddingService(ollama.Config{
			BaseURL: provider.EmbeddingBaseURL,
			Model:   provider.EmbeddingModel,
		})

	case domain.EmbeddingProviderOpenAI:
		apiKey := os.Getenv(provider.APIKeyEnv)
		if apiKey == "" {
			return nil, "", fmt.Errorf("%w: embedding provider %q needs %s set",
				domain.ErrInvalidConfig, provider.Embedding, provider.APIKeyEnv)
		}
		var err error
		embedder, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  apiKey,
			BaseURL: provider.EmbeddingBaseURL,
			Model:   provider.EmbeddingModel,
		})
		if err != nil {
			return nil, "", fmt.Errorf("embedding provider: %w", err)
		}

	default:
		return nil, "", fmt.Errorf("%w: unknown embedding provider %q",
			domain.ErrInvalidConfig, provider.Embedding)
	}

	idx, err := dense.New(embedder, dense.Config{})
	if err != nil {
		return nil, "", fmt.Errorf("dense index: %w", err)
	}
	return idx, embedder.ModelName(), nil
}

// buildLLM constructs the chat model client when an API key is
// available. Without one the answer service runs extractive-only.
func buildLLM(provider domain.ProviderSettings) driven.LLMService {
	apiKey := os.Getenv(provider.APIKeyEnv)
	if apiKey == "" {
		logger.Debug("%s not set, answers fall back to quoting passages", provider.APIKeyEnv)
		return nil
	}

	llm, err := openaillm.NewLLMService(openaillm.Config{
		APIKey:  apiKey,
		BaseURL: provider.LLMBaseURL,
		Model:   provider.LLMModel,
	})
	if err != nil {
		logger.Warn("LLM disabled: %v", err)
		return nil
	}
	return llm
}

func closeServices() {
	if storeCloser != nil {
		_ = storeCloser.Close()
		storeCloser = nil
	}
}
