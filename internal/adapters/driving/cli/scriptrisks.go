package cli

import (
	"github.com/spf13/cobra"
)

var scriptRisksJSON bool

var scriptRisksCmd = &cobra.Command{
	Use:   "script-risks [path]",
	Short: "Show the risk profile of a starter script",
	Args:  cobra.ExactArgs(1),
	RunE:  runScriptRisks,
	Annotations: map[string]string{
		annotationWiring: wiringOffline,
	},
}

func init() {
	scriptRisksCmd.Flags().BoolVar(&scriptRisksJSON, "json", false, "output the profile as JSON")
	rootCmd.AddCommand(scriptRisksCmd)
}

func runScriptRisks(cmd *cobra.Command, args []string) error {
	risk, err := riskService()
	if err != nil {
		return err
	}

	profile := risk.ScriptRisks(args[0])
	if scriptRisksJSON {
		return printJSON(cmd, profile)
	}

	if len(profile.Risks) == 0 && len(profile.RequiredPermissions) == 0 &&
		len(profile.EnvironmentConcerns) == 0 && len(profile.DataExposureRisks) == 0 {
		cmd.Printf("No known risk profile for %s\n", profile.ScriptPath)
		return nil
	}

	cmd.Printf("Script: %s\n", profile.ScriptPath)
	cmd.Println()
	printList(cmd, "Risks", profile.Risks)
	printList(cmd, "Required permissions", profile.RequiredPermissions)
	printList(cmd, "Environment concerns", profile.EnvironmentConcerns)
	printList(cmd, "Data exposure risks", profile.DataExposureRisks)
	return nil
}
