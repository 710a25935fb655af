package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/ad-verify/internal/knowledge"
)

func (s *Server) handleVerifyAd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}
	url := request.GetString("url", "")

	outcome, err := s.verifier.Verify(ctx, content, url)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("verification failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding outcome: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleSearchGuidelines(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	k := request.GetInt("k", defaultSearchK)
	if k <= 0 {
		k = defaultSearchK
	}
	k = min(k, maxSearchK)

	chunks, err := s.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return mcp.NewToolResultText(knowledge.FormatChunks(chunks)), nil
}
