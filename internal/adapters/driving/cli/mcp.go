package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/KKaradi/syfhack10year/internal/adapters/driving/mcp"
	"github.com/KKaradi/syfhack10year/internal/logger"
	"github.com/KKaradi/syfhack10year/internal/metrics"
)

const (
	metricsPath            = "/metrics"
	metricsShutdownTimeout = 5 * time.Second
)

var (
	mcpPort        int
	mcpHost        string
	mcpMetricsAddr string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
	Annotations: map[string]string{
		annotationWiring: wiringNone,
	},
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the retrieval and risk tools over MCP",
	Long: `Serves the search, gather_context, classify_step, assess_workflow and
index_stats tools together with the syfhack://stats, syfhack://resources
and syfhack://resources/{type} resources. An empty index is first built
from the configured corpus.

JSON-RPC runs over stdio unless --port is given, in which case a
streamable HTTP endpoint is served at /mcp with a health check at
/healthz.

Examples:
  syfhack mcp serve
  syfhack mcp serve --port 8080 --metrics-addr 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "127.0.0.1", "interface the HTTP server binds to")
	mcpServeCmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	retrieval, err := retrievalService()
	if err != nil {
		return err
	}
	risk, err := riskService()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval: retrieval,
		Risk:      risk,
		Catalog:   services.Catalog,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ensureIndexed(ctx)

	if mcpMetricsAddr != "" {
		stop, addr, err := serveMetrics(ctx, mcpMetricsAddr)
		if err != nil {
			return err
		}
		defer stop()
		fmt.Fprintf(cmd.ErrOrStderr(), "Metrics on http://%s%s\n", addr, metricsPath)
	}

	if mcpPort <= 0 {
		return server.Run(ctx)
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server on http://%s%s\n", addr, mcp.EndpointPath)
	return server.RunHTTP(ctx, addr)
}

// serveMetrics binds addr before returning, so a taken port fails the
// command, then serves the Prometheus registry until stop is called.
func serveMetrics(ctx context.Context, addr string) (stop func(), bound net.Addr, err error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped: %v", err)
		}
	}()

	stop = func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown: %v", err)
		}
	}
	return stop, listener.Addr(), nil
}
