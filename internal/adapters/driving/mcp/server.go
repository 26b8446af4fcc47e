package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/KKaradi/syfhack10year/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Paths served over HTTP.
const (
	EndpointPath = "/mcp"
	HealthPath   = "/healthz"
)

// DefaultShutdownTimeout bounds how long Serve waits for open sessions.
const DefaultShutdownTimeout = 5 * time.Second

// instructions tell the client how the tools fit together.
const instructions = `Knowledge retrieval and risk assessment for internal automation work.
Use gather_context with the automation request and the tools it touches to
find the relevant resources and databases. Use classify_step for a single
workflow step and assess_workflow for a whole workflow; both report the
risk level, the approvals required and the compliance frameworks involved.`

// Option configures a Server.
type Option func(*Server)

// WithShutdownTimeout replaces DefaultShutdownTimeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// Server exposes the retrieval and risk ports over MCP.
type Server struct {
	ports           *Ports
	server          *mcp.Server
	shutdownTimeout time.Duration
}

// NewServer validates ports and registers every tool and resource.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:           ports,
		shutdownTimeout: DefaultShutdownTimeout,
		server: mcp.NewServer(
			&mcp.Implementation{Name: "syfhack", Version: Version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves a single session over stdio until ctx ends or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("MCP server on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler together with a health
// endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(EndpointPath, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil))
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// RunHTTP listens on addr and serves Handler until ctx ends.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves Handler on listener until ctx ends, then shuts down
// gracefully. The listener is closed on return.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("MCP server shutdown: %v", err)
		}
	}()

	logger.Debug("MCP server on http://%s%s", listener.Addr(), EndpointPath)
	err := httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}
