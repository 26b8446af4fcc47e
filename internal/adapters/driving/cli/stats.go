package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	retrieval, err := retrievalService()
	if err != nil {
		return err
	}

	stats, err := retrieval.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}

	if statsJSON {
		return printJSON(cmd, stats)
	}

	cmd.Printf("Collection:   %s\n", stats.CollectionName)
	cmd.Printf("Total chunks: %d\n", stats.TotalChunks)
	printCounts(cmd, "Chunk types", stats.ChunkTypes)
	printCounts(cmd, "Resource types", stats.ResourceTypes)
	return nil
}

func printCounts(cmd *cobra.Command, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cmd.Println()
	cmd.Printf("%s:\n", title)
	for _, k := range keys {
		cmd.Printf("  %-16s %d\n", k, counts[k])
	}
}
