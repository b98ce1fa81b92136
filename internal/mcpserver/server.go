package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
)

// Server wraps a configured mark3labs/mcp-go server exposing every indexing,
// search, container, and annotation tool over stdio.
type Server struct {
	deps Deps
	mcp  *server.MCPServer
	log  *slog.Logger
}

// NewServer builds the MCP server and registers every tool against deps.
// logger may be nil, in which case slog.Default() is used.
func NewServer(deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Manager == nil || deps.Indexer == nil || deps.Engine == nil {
		return nil, fmt.Errorf("mcpserver: Manager, Indexer, and Engine are all required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		"semindex-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	addSearchTool(mcpServer, deps)
	addRelatedTool(mcpServer, deps)
	addIndexFolderTool(mcpServer, deps)
	addReindexAllTool(mcpServer, deps)
	addResetIndexTool(mcpServer, deps)
	addIndexStatusTool(mcpServer, deps)
	addDiffTool(mcpServer, deps)
	addReadFileTool(mcpServer, deps)
	addListFilesTool(mcpServer, deps)
	addListContainersTool(mcpServer, deps)
	addCreateContainerTool(mcpServer, deps)
	addDeleteContainerTool(mcpServer, deps)
	addSetActiveContainerTool(mcpServer, deps)
	addAddAnnotationTool(mcpServer, deps)
	addDeleteAnnotationTool(mcpServer, deps)
	addGetAnnotationsTool(mcpServer, deps)

	return &Server{deps: deps, mcp: mcpServer, log: logger}, nil
}

// Serve runs the stdio transport loop until ctx is canceled or a SIGINT/SIGTERM
// arrives, whichever comes first.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("mcp server: %w", err)
		}
	}()

	select {
	case <-sigCh:
		s.log.Info("shutdown signal received, stopping")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the container manager and indexer behind this server.
func (s *Server) Close() error {
	var firstErr error
	if err := s.deps.Indexer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.deps.Manager.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
