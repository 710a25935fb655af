package mcp

import "github.com/mark3labs/mcp-go/mcp"

const (
	defaultSearchK = 5
	maxSearchK     = 50
)

var verifyAdTool = mcp.NewTool("verify_ad",
	mcp.WithDescription("Assess the credibility of an advertisement against advertising regulations. Returns a JSON object with credibility_score (0 to 1), explanation, issues and recommendations."),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("The advertisement text"),
	),
	mcp.WithString("url",
		mcp.Description("Optional landing page URL whose text is added as context"),
	),
)

var searchGuidelinesTool = mcp.NewTool("search_guidelines",
	mcp.WithDescription("Search the advertising regulations and guidelines knowledge base."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("k",
		mcp.Description("Maximum number of passages to return (default 5, max 50)"),
	),
)
