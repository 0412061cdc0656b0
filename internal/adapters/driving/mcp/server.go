package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/resultq/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Server is the MCP server for resultq.
type Server struct {
	ports   *Ports
	server  *mcp.Server
	perPage int
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if ports == nil {
		return nil, ErrMissingSearchService
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "resultq",
		Version: Version,
	}

	s := &Server{
		ports:   ports,
		server:  mcp.NewServer(impl, nil),
		perPage: defaultPerPage,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// SetPerPage sets the page size used when a tool call gives none.
func (s *Server) SetPerPage(n int) {
	if n > 0 {
		s.perPage = n
	}
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("MCP server on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is
// cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	logger.Info("MCP server listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
