package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

const snippetLength = 100

var (
	searchLimit       int
	searchKind        string
	searchMaxDistance float64
	searchJSON        bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Embeds the query and returns the nearest chunks of the index, closest
first. Use --kind to restrict results to main, resource or database chunks
and --max-distance to drop weak matches (cosine distance, 0 to 2).`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "restrict to a chunk kind (main, resource, database)")
	searchCmd.Flags().Float64Var(&searchMaxDistance, "max-distance", 0, "drop results farther than this distance (0 keeps all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	retrieval, err := retrievalService()
	if err != nil {
		return err
	}

	var filter domain.MetadataFilter
	if searchKind != "" {
		if !domain.ChunkKind(searchKind).IsValid() {
			return fmt.Errorf("%w: unknown chunk kind %q", domain.ErrInvalidInput, searchKind)
		}
		filter = domain.MetadataFilter{domain.MetaChunkType: searchKind}
	}

	ensureIndexed(cmd.Context())

	results, err := retrieval.Search(cmd.Context(), args[0], searchLimit, filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results = withinDistance(results, searchMaxDistance)

	if searchJSON {
		return printJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

// withinDistance keeps results no farther than limit. A non-positive limit
// keeps everything. The result is never nil so JSON output is "[]".
func withinDistance(results []domain.QueryResult, limit float64) []domain.QueryResult {
	kept := make([]domain.QueryResult, 0, len(results))
	for _, r := range results {
		if limit <= 0 || r.Distance <= limit {
			kept = append(kept, r)
		}
	}
	return kept
}

func outputSearchTable(cmd *cobra.Command, results []domain.QueryResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%d):\n\n", len(results))
	for i := range results {
		r := &results[i]
		title := valueOrDefault(r.Metadata[domain.MetaTitle], r.ID)

		cmd.Printf("  [%d] %s (%s, %.3f)\n", i+1, title, r.Kind(), r.Distance)
		if name := r.Metadata[domain.MetaResourceName]; name != "" {
			cmd.Printf("      Resource: %s\n", name)
		}
		if name := r.Metadata[domain.MetaDatabaseName]; name != "" {
			cmd.Printf("      Database: %s\n", name)
		}
		cmd.Printf("      %s\n", snippet(r.Text, snippetLength))
		cmd.Println()
	}
	return nil
}
