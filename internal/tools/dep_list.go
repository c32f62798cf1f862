package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/taskroute/internal/graph"
)

// DepListTool handles the dep_list MCP tool.
type DepListTool struct {
	graph *graph.Store
}

// NewDepListTool creates a DepListTool backed by the graph store.
func NewDepListTool(g *graph.Store) *DepListTool {
	return &DepListTool{graph: g}
}

// Definition returns the MCP tool definition for registration.
func (t *DepListTool) Definition() mcp.Tool {
	return mcp.NewTool("dep_list",
		mcp.WithDescription(
			"Show the dependency edges around a task: what it depends on, "+
				"what depends on it, or both.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Qualified task id, prefix#local."),
		),
		mcp.WithString("direction",
			mcp.Description("Which edges to show. Default: both."),
			mcp.Enum("dependencies", "dependents", "both"),
		),
	)
}

// Handle processes the dep_list tool call.
func (t *DepListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	direction := req.GetString("direction", "both")
	switch direction {
	case "dependencies", "dependents", "both":
	default:
		return mcp.NewToolResultError(fmt.Sprintf(
			"invalid direction %q: must be one of: dependencies, dependents, both", direction)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Dependencies of `%s`\n", id)

	if direction == "dependencies" || direction == "both" {
		deps, err := t.graph.ListDependencies(ctx, id)
		if err != nil {
			return errorResult(err)
		}
		writeEdgeList(&b, "Depends on", deps)
	}
	if direction == "dependents" || direction == "both" {
		dependents, err := t.graph.ListDependents(ctx, id)
		if err != nil {
			return errorResult(err)
		}
		writeEdgeList(&b, "Depended on by", dependents)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// writeEdgeList renders one direction of edges as a bullet list.
func writeEdgeList(b *strings.Builder, label string, ids []string) {
	fmt.Fprintf(b, "\n**%s** (%d)\n", label, len(ids))
	if len(ids) == 0 {
		b.WriteString("\n_none_\n")
		return
	}
	b.WriteString("\n")
	for _, id := range ids {
		fmt.Fprintf(b, "- `%s`\n", id)
	}
}
