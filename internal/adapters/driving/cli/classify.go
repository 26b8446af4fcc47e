package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

var classifyJSON bool

var classifyCmd = &cobra.Command{
	Use:   "classify [workflow.json]",
	Short: "Assess the security risk of an automation workflow",
	Long: `Classifies every step of a workflow file and prints the aggregated
security report: overall risk level, high-risk steps, required approvals,
compliance frameworks and recommendations.

The file holds either a JSON array of steps or an object with a "steps"
array. Use "-" to read from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
	Annotations: map[string]string{
		annotationWiring: wiringOffline,
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	risk, err := riskService()
	if err != nil {
		return err
	}

	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	steps, err := parseWorkflow(data)
	if err != nil {
		return err
	}

	report, err := risk.Aggregate(cmd.Context(), steps)
	if err != nil {
		return fmt.Errorf("assess workflow: %w", err)
	}

	if classifyJSON {
		return printJSON(cmd, report)
	}
	printWorkflowReport(cmd, &report)
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}
	return data, nil
}

// parseWorkflow accepts a bare array of steps or {"steps": [...]}.
func parseWorkflow(data []byte) ([]domain.AutomationStep, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty workflow", domain.ErrInvalidInput)
	}

	var steps []domain.AutomationStep
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &steps); err != nil {
			return nil, fmt.Errorf("%w: parse workflow: %v", domain.ErrInvalidInput, err)
		}
		return steps, nil
	}

	var wrapper struct {
		Steps []domain.AutomationStep `json:"steps"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: parse workflow: %v", domain.ErrInvalidInput, err)
	}
	if wrapper.Steps == nil {
		return nil, fmt.Errorf("%w: workflow has no steps array", domain.ErrInvalidInput)
	}
	return wrapper.Steps, nil
}

func printWorkflowReport(cmd *cobra.Command, r *domain.WorkflowSecurityReport) {
	cmd.Printf("Overall risk: %s\n", strings.ToUpper(r.OverallSeverity.String()))
	cmd.Printf("Steps analyzed: %d\n", r.TotalSteps)
	cmd.Println()

	if len(r.HighRiskSteps) > 0 {
		cmd.Println("High-risk steps:")
		for _, s := range r.HighRiskSteps {
			cmd.Printf("  [%s] %s (%s)\n", s.StepID, s.StepName, strings.ToUpper(s.Severity.String()))
			for _, c := range s.Concerns {
				cmd.Printf("      %s: %s\n", c.Kind, c.Description)
			}
		}
		cmd.Println()
	}

	if len(r.Approvals) > 0 {
		cmd.Println("Required approvals:")
		for _, a := range r.Approvals {
			cmd.Printf("  %-18s %s (%s)\n", a.ApprovalType, a.ApproverRole, a.EstimatedTime)
		}
		cmd.Println()
	}

	printList(cmd, "Compliance", r.Compliance)

	cmd.Println("Summary:")
	cmd.Printf("  PII handling steps:        %d\n", r.Summary.PIIHandlingSteps)
	cmd.Printf("  Database write steps:      %d\n", r.Summary.DatabaseWriteSteps)
	cmd.Printf("  Payment processing steps:  %d\n", r.Summary.PaymentProcessingSteps)
	cmd.Printf("  Sensitive system steps:    %d\n", r.Summary.SensitiveSystemSteps)
	cmd.Println()

	printList(cmd, "Recommendations", r.Recommendations)
}
