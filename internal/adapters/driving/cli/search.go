package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs hybrid search across all indexed documents.
Combines keyword (BM25) and semantic (embedding) ranking for best results.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	result, err := retrievalService.Retrieve(cmd.Context(), args[0], domain.RetrievalOptions{
		TopN: searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	for _, warning := range result.Warnings {
		cmd.PrintErrf("Warning: %s\n", warning)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result.Passages)
	}
	return outputSearchTable(cmd, result.Passages)
}

func outputSearchJSON(cmd *cobra.Command, passages []domain.ScoredPassage) error {
	data, err := json.MarshalIndent(passages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, passages []domain.ScoredPassage) error {
	if len(passages) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, p := range passages {
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, p.Citation, p.Score)
		cmd.Printf("      %s\n", snippet(p.Chunk.Content, 160))
		cmd.Println()
	}
	return nil
}

// snippet truncates content to at most max runes on a rune boundary.
func snippet(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}
