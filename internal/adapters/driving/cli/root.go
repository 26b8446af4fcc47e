// Package cli provides the cobra command tree of the syfhack binary.
//
// Commands call into the driving ports held in a Services value. The
// value is produced lazily by the Builder installed with SetBuilder, once
// the global flags are parsed, so offline commands never open an index or
// reach an embedding backend.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driving"
	"github.com/KKaradi/syfhack10year/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services bundles the ports the commands call into.
type Services struct {
	Retrieval driving.RetrievalService
	Risk      driving.RiskService
	Catalog   driving.ResourceCatalog
	Settings  driving.SettingsService

	// Corpus opens the corpus at root. An empty root selects the
	// configured corpus directory.
	Corpus func(root string) driven.CorpusSource

	// Close releases the adapters behind the services. May be nil.
	Close func() error
}

// Options carries the global flags to the Builder.
type Options struct {
	// ConfigDir overrides the configuration directory.
	ConfigDir string

	// Offline asks for Services without the retrieval stack: Retrieval
	// stays nil and no embedding backend or vector index is opened.
	Offline bool

	// Trace names the span exporter: none, stdout or otlp. Empty defers to
	// OTEL_TRACES_EXPORTER.
	Trace string
}

// Builder constructs the services for one command invocation.
type Builder func(ctx context.Context, opts Options) (*Services, error)

// Command wiring levels, set through the "wiring" annotation.
const (
	annotationWiring = "wiring"
	wiringNone       = "none"
	wiringOffline    = "offline"
)

var (
	verbose   bool
	logFormat string
	configDir string
	trace     string

	builder  Builder
	services *Services
)

var (
	errNotConfigured = errors.New("services not configured")
	errNoRetrieval   = errors.New("retrieval service not configured")
	errNoRisk        = errors.New("risk service not configured")
	errNoCatalog     = errors.New("resource catalog not configured")
	errNoSettings    = errors.New("settings service not configured")
)

var rootCmd = &cobra.Command{
	Use:   "syfhack",
	Short: "Workflow knowledge retrieval and risk classification",
	Long: `syfhack indexes a corpus of internal HTML documentation, answers
semantic queries over it, gathers the resources and databases relevant to
an automation request, and scores automation workflows for security risk
and the approvals they need.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
}

func init() {
	rootCmd.SetOut(os.Stdout)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logger.FormatText), "diagnostic log format: text or json")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.syfhack)")
	rootCmd.PersistentFlags().StringVar(&trace, "trace", "", "span exporter: none, stdout or otlp (default $OTEL_TRACES_EXPORTER)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBuilder installs the function that wires the services.
func SetBuilder(b Builder) {
	builder = b
}

// Execute runs the root command and releases the services it wired.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, closeServices())
}

func setupServices(cmd *cobra.Command, _ []string) error {
	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return err
	}
	logger.SetFormat(format)
	logger.SetVerbose(verbose)

	mode := cmd.Annotations[annotationWiring]
	if mode == wiringNone || services != nil {
		return nil
	}
	if builder == nil {
		return errNotConfigured
	}

	built, err := builder(cmd.Context(), Options{
		ConfigDir: configDir,
		Offline:   mode == wiringOffline,
		Trace:     trace,
	})
	if err != nil {
		return err
	}
	services = built
	return nil
}

func closeServices() error {
	if services == nil {
		return nil
	}
	s := services
	services = nil
	if s.Close == nil {
		return nil
	}
	return s.Close()
}

func retrievalService() (driving.RetrievalService, error) {
	if services == nil || services.Retrieval == nil {
		return nil, errNoRetrieval
	}
	return services.Retrieval, nil
}

func riskService() (driving.RiskService, error) {
	if services == nil || services.Risk == nil {
		return nil, errNoRisk
	}
	return services.Risk, nil
}

func resourceCatalog() (driving.ResourceCatalog, error) {
	if services == nil || services.Catalog == nil {
		return nil, errNoCatalog
	}
	return services.Catalog, nil
}

func settingsService() (driving.SettingsService, error) {
	if services == nil || services.Settings == nil {
		return nil, errNoSettings
	}
	return services.Settings, nil
}
