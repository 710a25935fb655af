// Package mcp exposes the verification pipeline as Model Context Protocol
// tools over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/ad-verify/internal/knowledge"
	"github.com/ziadkadry99/ad-verify/internal/verifier"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Verifier runs a verification without recording it.
type Verifier interface {
	Verify(ctx context.Context, content, url string) (*verifier.Outcome, error)
}

// Retriever searches the guideline knowledge base.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]knowledge.Chunk, error)
}

// Server wraps an MCP server that exposes ad verification tools.
type Server struct {
	verifier  Verifier
	retriever Retriever
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(v Verifier, r Retriever) *Server {
	s := &Server{verifier: v, retriever: r}

	s.mcp = server.NewMCPServer(
		"adverify",
		Version,
		server.WithToolCapabilities(false),
	)
	s.mcp.AddTool(verifyAdTool, s.handleVerifyAd)
	s.mcp.AddTool(searchGuidelinesTool, s.handleSearchGuidelines)

	return s
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
