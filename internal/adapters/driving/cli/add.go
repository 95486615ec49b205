package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
)

var addCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Add documents to the corpus",
	Long: `Extracts, chunks and indexes one or more documents.
Supported formats: .txt, .md, .pdf. Re-adding a file with the same
name replaces the previous version.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	var failures int
	for _, path := range args {
		if extractor != nil && !extractor.Supports(path) {
			cmd.Printf("  skipped %s: unsupported format\n", path)
			failures++
			continue
		}

		report, err := ingestService.IngestFile(cmd.Context(), path)
		if err != nil {
			if errors.Is(err, domain.ErrEmptyDocument) {
				cmd.Printf("  skipped %s: no extractable text\n", path)
				continue
			}
			cmd.Printf("  failed %s: %v\n", path, err)
			failures++
			continue
		}

		cmd.Printf("  added %s: %d/%d chunks indexed\n", report.Name, report.Indexed, report.Chunks)
		for _, f := range report.Failed {
			cmd.Printf("    chunk %s: %s\n", f.ChunkID, f.Reason)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d files not ingested", failures, len(args))
	}
	return nil
}
