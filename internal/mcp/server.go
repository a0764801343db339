package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/trialrag/internal/query"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Catalog is the set of persisted indexes the server exposes.
type Catalog interface {
	Indexes() []query.IndexInfo
	Ask(ctx context.Context, name, question string) (*query.Response, error)
	Search(ctx context.Context, name, text string, limit int) ([]query.Source, error)
}

// Server wraps an MCP server that exposes index question and search tools.
type Server struct {
	catalog Catalog
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server over catalog.
func NewServer(catalog Catalog) *Server {
	s := &Server{catalog: catalog}

	s.mcp = server.NewMCPServer(
		"trialrag",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listIndexesTool, s.handleListIndexes)
	s.mcp.AddTool(askIndexTool, s.handleAskIndex)
	s.mcp.AddTool(searchIndexTool, s.handleSearchIndex)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
