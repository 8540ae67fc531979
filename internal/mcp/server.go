package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kanak8278/IBC-RAG/internal/indexer"
	"github.com/kanak8278/IBC-RAG/internal/merger"
	"github.com/kanak8278/IBC-RAG/internal/processor"
	"github.com/kanak8278/IBC-RAG/internal/searcher"
	"github.com/kanak8278/IBC-RAG/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "ibcrag"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Deps are the components the tools run on. The caller owns them and
// closes Storage.
type Deps struct {
	Storage   storage.Storage
	Processor *processor.Service
	Merger    *merger.Engine
	Indexer   *indexer.Indexer
	Searcher  *searcher.Searcher

	// ProcessorOptions builds a processor when a tool call forces a family
	ProcessorOptions processor.Options

	// Index defaults for index_corpus
	Workers    int
	Extensions []string
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp  *server.MCPServer
	deps Deps
}

// NewServer creates a new MCP server instance with all tools registered
func NewServer(deps Deps) *Server {
	s := &Server{
		mcp:  server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		deps: deps,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(processDocumentTool(), s.handleProcessDocument)
	s.mcp.AddTool(indexCorpusTool(), s.handleIndexCorpus)
	s.mcp.AddTool(searchDocumentsTool(), s.handleSearchDocuments)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
