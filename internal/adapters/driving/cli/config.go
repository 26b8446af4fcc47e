package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	Long: `Shows the effective configuration or stores a single value.

Every key can be overridden with an environment variable named after it:
embedding.model is read from SYFHACK_EMBEDDING_MODEL.`,
	Annotations: map[string]string{
		annotationWiring: wiringOffline,
	},
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	Annotations: map[string]string{
		annotationWiring: wiringOffline,
	},
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store a configuration value",
	Args:  cobra.ExactArgs(2),
	Annotations: map[string]string{
		annotationWiring: wiringOffline,
	},
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset [key]",
	Short: "Remove a stored value so its default applies",
	Args:  cobra.ExactArgs(1),
	Annotations: map[string]string{
		annotationWiring: wiringOffline,
	},
	RunE: runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Args:  cobra.NoArgs,
	Annotations: map[string]string{
		annotationWiring: wiringOffline,
	},
	RunE: runConfigKeys,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}

	settings, err := settingsSvc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	if settings.Embedding.Model != "" {
		cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	}
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if settings.Embedding.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	}
	cmd.Printf("  Timeout: %ds\n", settings.Embedding.TimeoutSeconds)
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Backend: %s\n", settings.Index.Backend.Description())
	if settings.Index.Backend == domain.IndexBackendWeaviate {
		cmd.Printf("  Weaviate: %s://%s (class %s)\n",
			settings.Index.WeaviateScheme, settings.Index.WeaviateHost, settings.Index.WeaviateClass)
	}
	if settings.Index.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Index.DataDir)
	}
	cmd.Println()

	cmd.Println("[Corpus]")
	cmd.Printf("  Path: %s\n", settings.CorpusPath)
	cmd.Printf("  Rules: %s\n", valueOrDefault(settings.RulesPath, "(built-in)"))
	cmd.Printf("  Cache: %s\n", valueOrDefault(settings.CacheDir, "(default)"))

	if err := settingsSvc.Validate(); err != nil {
		cmd.Println()
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}

	key := strings.ToLower(strings.TrimSpace(args[0]))
	if err := settingsSvc.Set(key, args[1]); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	cmd.Printf("Set %s\n", key)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}

	key := strings.ToLower(strings.TrimSpace(args[0]))
	if err := settingsSvc.Reset(key); err != nil {
		return fmt.Errorf("unset %s: %w", key, err)
	}
	cmd.Printf("Unset %s\n", key)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}
	for _, key := range settingsSvc.Keys() {
		cmd.Println(key)
	}
	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func valueOrDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
