package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

var (
	contextTools []string
	contextJSON  bool
)

var contextCmd = &cobra.Command{
	Use:   "context [description]",
	Short: "Gather resources and databases for an automation request",
	Long: `Searches the index for the resources and databases relevant to an
automation request and the tools it names. Results are deduplicated by
name and cached until the next index run.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringSliceVarP(&contextTools, "tool", "t", nil, "tool the automation uses (repeatable)")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output the context as JSON")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	retrieval, err := retrievalService()
	if err != nil {
		return err
	}

	ensureIndexed(cmd.Context())

	result, err := retrieval.GatherContext(cmd.Context(), args[0], contextTools)
	if err != nil {
		return fmt.Errorf("gather context: %w", err)
	}

	if contextJSON {
		return printJSON(cmd, result)
	}
	printContext(cmd, &result)
	return nil
}

func printContext(cmd *cobra.Command, c *domain.AutomationContext) {
	if len(c.Resources) == 0 && len(c.Databases) == 0 {
		cmd.Println("No relevant resources or databases found.")
		return
	}

	if len(c.Resources) > 0 {
		cmd.Printf("Resources (%d):\n", len(c.Resources))
		for _, r := range c.Resources {
			cmd.Printf("  %s [%s]\n", r.Name, r.Type)
			printField(cmd, "Owner", r.Owner)
			printField(cmd, "Languages", r.Languages)
			printField(cmd, "Frameworks", r.Frameworks)
			printField(cmd, "Document", r.Document)
		}
		cmd.Println()
	}

	if len(c.Databases) > 0 {
		cmd.Printf("Databases (%d):\n", len(c.Databases))
		for _, d := range c.Databases {
			cmd.Printf("  %s [%s]\n", d.Name, d.Type)
			printField(cmd, "Owner", d.Owner)
			printField(cmd, "Document", d.Document)
		}
		cmd.Println()
	}

	printList(cmd, "Development recommendations", c.DevelopmentRecommendations)
	printList(cmd, "Security considerations", c.SecurityConsiderations)
	printList(cmd, "Approval requirements", c.ApprovalRequirements)
}

func printField(cmd *cobra.Command, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	cmd.Printf("    %s: %s\n", label, value)
}
