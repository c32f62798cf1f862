package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/taskroute/internal/graph"
)

// DepRemoveTool handles the dep_remove MCP tool.
type DepRemoveTool struct {
	graph *graph.Store
}

// NewDepRemoveTool creates a DepRemoveTool backed by the graph store.
func NewDepRemoveTool(g *graph.Store) *DepRemoveTool {
	return &DepRemoveTool{graph: g}
}

// Definition returns the MCP tool definition for registration.
func (t *DepRemoveTool) Definition() mcp.Tool {
	return mcp.NewTool("dep_remove",
		mcp.WithDescription(
			"Remove a dependency edge. Removing an edge that does not exist "+
				"is not an error; the result says whether anything changed.",
		),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Qualified id of the task that has the dependency."),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Qualified id of the task it depends on."),
		),
	)
}

// Handle processes the dep_remove tool call.
func (t *DepRemoveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from := req.GetString("from", "")
	to := req.GetString("to", "")
	if from == "" || to == "" {
		return mcp.NewToolResultError("from and to are required"), nil
	}

	removed, err := t.graph.RemoveDependency(ctx, from, to)
	if err != nil {
		return errorResult(err)
	}

	if !removed {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No edge `%s` -> `%s` was recorded; nothing changed.", from, to)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"✂️ `%s` no longer depends on `%s`.", from, to)), nil
}
