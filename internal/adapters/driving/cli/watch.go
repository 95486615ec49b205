package cli

import (
	"context"
	"errors"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
	"github.com/parchment-labs/docq-cli/internal/logger"
)

// watchDebounce coalesces the burst of write events an editor save
// produces into a single ingestion.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and keep the corpus in sync",
	Long: `Watches a directory for changes. New or modified documents are
re-ingested; deleted documents are removed from the corpus. Runs
until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	dir := args[0]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	// Ingest what's already there before reacting to changes.
	if err := ingestExisting(cmd, dir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (ctrl-c to stop)\n", dir)
	return watchLoop(ctx, cmd, watcher)
}

func ingestExisting(cmd *cobra.Command, dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		if extractor == nil || !extractor.Supports(path) {
			continue
		}
		ingestPath(cmd, path)
	}
	return nil
}

func watchLoop(ctx context.Context, cmd *cobra.Command, watcher *fsnotify.Watcher) error {
	debounce := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if extractor == nil || !extractor.Supports(event.Name) {
				continue
			}

			switch {
			case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
				name := filepath.Base(event.Name)
				if err := ingestService.RemoveByName(ctx, name); err != nil {
					if !errors.Is(err, domain.ErrNotFound) {
						logger.Warn("Remove %s: %v", name, err)
					}
					continue
				}
				cmd.Printf("  removed %s\n", name)

			case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
				path := event.Name
				if timer, ok := debounce[path]; ok {
					timer.Stop()
				}
				debounce[path] = time.AfterFunc(watchDebounce, func() {
					ingestPath(cmd, path)
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func ingestPath(cmd *cobra.Command, path string) {
	report, err := ingestService.IngestFile(context.Background(), path)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyDocument) {
			return
		}
		logger.Warn("Ingest %s: %v", path, err)
		return
	}
	cmd.Printf("  synced %s: %d/%d chunks indexed\n", report.Name, report.Indexed, report.Chunks)
}
