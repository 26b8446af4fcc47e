package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	resourcesReload bool
	resourcesJSON   bool
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List the resources documented in the corpus",
	Long: `Reads the corpus and lists every resource found in the "Resources and
Tools" sections, grouped by type. Use --reload to bypass the cached catalog.`,
	Args: cobra.NoArgs,
	RunE: runResources,
	Annotations: map[string]string{
		annotationWiring: wiringOffline,
	},
}

func init() {
	resourcesCmd.Flags().BoolVar(&resourcesReload, "reload", false, "reload the corpus before listing")
	resourcesCmd.Flags().BoolVar(&resourcesJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(resourcesCmd)
}

func runResources(cmd *cobra.Command, _ []string) error {
	catalog, err := resourceCatalog()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if resourcesReload {
		if _, err := catalog.ForceReload(ctx); err != nil {
			return fmt.Errorf("reload resources: %w", err)
		}
	}

	summary, err := catalog.Summary(ctx)
	if err != nil {
		return fmt.Errorf("summarise resources: %w", err)
	}

	if resourcesJSON {
		return printJSON(cmd, summary)
	}

	if summary.TotalResources == 0 {
		cmd.Println("No resources found.")
		return nil
	}

	cmd.Printf("Resources: %d\n", summary.TotalResources)
	printCounts(cmd, "By type", summary.ByType)
	cmd.Println()
	for _, r := range summary.Resources {
		cmd.Printf("  %s [%s]\n", r.Name, r.Type)
		if r.Description != "" {
			cmd.Printf("    %s\n", r.Description)
		}
	}
	return nil
}
