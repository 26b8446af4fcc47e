package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
	"github.com/KKaradi/syfhack10year/internal/logger"
)

// watchDebounce groups bursts of file events into one reindex.
var watchDebounce = 500 * time.Millisecond

var (
	indexWatch bool
	indexJSON  bool
)

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Index the document corpus",
	Long: `Extracts every HTML document of the corpus directory, splits it into
chunks, embeds them and replaces the vector index with the result.

The directory defaults to corpus.path from the configuration. Documents
that cannot be parsed are skipped and listed.

With --watch the command keeps running and reindexes whenever a document
is created, modified or deleted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "reindex when documents change")
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if _, err := retrievalService(); err != nil {
		return err
	}
	if services.Corpus == nil {
		return errors.New("corpus source not configured")
	}

	root := ""
	if len(args) > 0 {
		root = args[0]
	}
	source := services.Corpus(root)
	ctx := cmd.Context()

	if err := indexOnce(ctx, cmd, source); err != nil {
		return err
	}
	if !indexWatch {
		return nil
	}
	return watchAndReindex(ctx, cmd, source)
}

func indexOnce(ctx context.Context, cmd *cobra.Command, source driven.CorpusSource) error {
	start := time.Now()

	docs, err := source.List(ctx)
	if err != nil {
		return fmt.Errorf("list corpus: %w", err)
	}

	result, err := services.Retrieval.IndexCorpus(ctx, docs)
	if err != nil {
		return fmt.Errorf("index corpus: %w", err)
	}
	if services.Catalog != nil {
		services.Catalog.Invalidate()
	}

	if indexJSON {
		return printJSON(cmd, result)
	}

	cmd.Printf("Indexed %d chunk(s) from %d document(s) in %s\n",
		result.Chunks, result.Documents, time.Since(start).Round(time.Millisecond))
	if result.Skipped > 0 {
		cmd.Printf("Skipped %d document(s):\n", result.Skipped)
		for _, f := range result.Failures {
			cmd.Printf("  - %s\n", f)
		}
	}
	return nil
}

// watchAndReindex reindexes the whole corpus after every quiet period that
// follows at least one change. A failed pass is reported and watching
// continues.
func watchAndReindex(ctx context.Context, cmd *cobra.Command, source driven.CorpusSource) error {
	changes, err := source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch corpus: %w", err)
	}
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", source.Root())

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := 0

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case change, ok := <-changes:
			if !ok {
				timer.Stop()
				return nil
			}
			logger.Debug("Corpus %s: %s", change.Type, change.URI)
			pending++
			timer.Reset(watchDebounce)
		case <-timer.C:
			cmd.Printf("Detected %d change(s), reindexing...\n", pending)
			pending = 0
			if err := indexOnce(ctx, cmd, source); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Error("Reindex failed: %v", err)
			}
		}
	}
}

// ensureIndexed indexes the configured corpus when the index is empty, so
// commands work on the in-memory backend without a separate index run.
// Failures are logged and leave the index as it was.
func ensureIndexed(ctx context.Context) {
	if services == nil || services.Retrieval == nil || services.Corpus == nil {
		return
	}
	stats, err := services.Retrieval.Stats(ctx)
	if err != nil || stats.TotalChunks > 0 {
		return
	}

	source := services.Corpus("")
	docs, err := source.List(ctx)
	if err != nil {
		logger.Warn("Index is empty and corpus %s cannot be read: %v", source.Root(), err)
		return
	}
	if len(docs) == 0 {
		return
	}

	logger.Info("Index is empty, indexing %s", source.Root())
	result, err := services.Retrieval.IndexCorpus(ctx, docs)
	if err != nil {
		logger.Warn("Indexing %s failed: %v", source.Root(), err)
		return
	}
	if services.Catalog != nil {
		services.Catalog.Invalidate()
	}
	logger.Info("Indexed %d chunk(s) from %d document(s)", result.Chunks, result.Documents)
}
