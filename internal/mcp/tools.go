package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listIndexesTool defines the list_indexes MCP tool.
var listIndexesTool = mcp.NewTool("list_indexes",
	mcp.WithDescription("List the persisted document and sponsor indexes and whether each has been built."),
)

// askIndexTool defines the ask_index MCP tool.
var askIndexTool = mcp.NewTool("ask_index",
	mcp.WithDescription("Ask a natural-language question against one index. The local model answers from the retrieved context."),
	mcp.WithString("index",
		mcp.Required(),
		mcp.Description("Index name, e.g. pdf or sponsor/Abbott"),
	),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Question to answer"),
	),
)

// searchIndexTool defines the search_index MCP tool.
var searchIndexTool = mcp.NewTool("search_index",
	mcp.WithDescription("Return the stored passages of one index most similar to a query, without calling the generation model."),
	mcp.WithString("index",
		mcp.Required(),
		mcp.Description("Index name, e.g. pdf or sponsor/Abbott"),
	),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of passages to return (default: similarity_top_k)"),
	),
)
