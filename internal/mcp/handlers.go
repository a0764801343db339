package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/trialrag/internal/indexer"
	"github.com/ziadkadry99/trialrag/internal/query"
)

// handleListIndexes lists the catalog entries.
func (s *Server) handleListIndexes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatIndexes(s.catalog.Indexes())), nil
}

// handleAskIndex answers a question from one index.
func (s *Server) handleAskIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("index")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: index"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	resp, err := s.catalog.Ask(ctx, name, question)
	if err != nil {
		return mcp.NewToolResultError(describeError(name, err)), nil
	}

	var sb strings.Builder
	sb.WriteString(resp.Text)
	sb.WriteString("\n\nSources:\n")
	for _, src := range resp.Sources {
		fmt.Fprintf(&sb, "- %s\n", src.RefDocID)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleSearchIndex performs semantic search over one index.
func (s *Server) handleSearchIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("index")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: index"), nil
	}
	text, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := request.GetInt("limit", 0)

	sources, err := s.catalog.Search(ctx, name, text, limit)
	if err != nil {
		return mcp.NewToolResultError(describeError(name, err)), nil
	}
	if len(sources) == 0 {
		return mcp.NewToolResultText("No results found. The index is empty."), nil
	}
	return mcp.NewToolResultText(formatSources(sources)), nil
}

// describeError turns catalog errors into instructions an agent can act on.
func describeError(name string, err error) string {
	switch {
	case errors.Is(err, query.ErrUnknownIndex):
		return fmt.Sprintf("Unknown index %q. Call list_indexes to see the available names.", name)
	case errors.Is(err, indexer.ErrNoManifest):
		return fmt.Sprintf("Index %q has not been built yet. Run `trialrag pdf` or `trialrag sponsors index` first.", name)
	}
	return fmt.Sprintf("request failed: %v", err)
}

func formatIndexes(infos []query.IndexInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d index(es):\n", len(infos))
	for _, info := range infos {
		if !info.Available {
			fmt.Fprintf(&sb, "- %s (not built) %s\n", info.Name, info.Dir)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %d document(s), %d node(s), embedding model %s, built %s\n",
			info.Name, info.Documents, info.Nodes, info.EmbeddingModel, info.CreatedAt.Format("2006-01-02 15:04"))
	}
	return sb.String()
}

// formatSources converts retrieved passages into a text format suited to
// AI agent consumption.
func formatSources(sources []query.Source) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(sources))

	for i, src := range sources {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)
		fmt.Fprintf(&sb, "Source: %s\n", src.RefDocID)
		fmt.Fprintf(&sb, "Node: %s\n", src.NodeID)
		fmt.Fprintf(&sb, "Similarity: %.1f%%\n", src.Score*100)
		sb.WriteString("\n")
		sb.WriteString(src.Text)
		sb.WriteString("\n")
	}

	return sb.String()
}
