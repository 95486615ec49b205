package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List documents in the corpus",
	Args:  cobra.NoArgs,
	RunE:  runDocs,
}

var rmCmd = &cobra.Command{
	Use:   "rm [name]",
	Short: "Remove a document from the corpus",
	Long: `Removes the document with the given display name, together
with its chunks and index entries.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(statsCmd)
}

func runDocs(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	docs, err := ingestService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents. Use 'docq add' to ingest some.")
		return nil
	}

	for _, doc := range docs {
		cmd.Printf("  %s  (%d chunks, added %s)\n",
			doc.Name, doc.ChunkCount, doc.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	name := args[0]
	if err := ingestService.RemoveByName(cmd.Context(), name); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no document named %q", name)
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}

	cmd.Printf("Removed %s\n", name)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	stats, err := ingestService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	cmd.Printf("Documents:       %d\n", stats.Documents)
	cmd.Printf("Chunks:          %d\n", stats.Chunks)
	cmd.Printf("Embedded chunks: %d\n", stats.EmbeddedChunks)
	if stats.EmbeddingModel != "" {
		cmd.Printf("Embedding model: %s (%d dims)\n", stats.EmbeddingModel, stats.EmbeddingDims)
	}
	return nil
}
