package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/taskroute/internal/backend"
	"github.com/HendryAvila/taskroute/internal/graph"
)

// DepAddTool handles the dep_add MCP tool.
type DepAddTool struct {
	graph *graph.Store
}

// NewDepAddTool creates a DepAddTool backed by the graph store.
func NewDepAddTool(g *graph.Store) *DepAddTool {
	return &DepAddTool{graph: g}
}

// Definition returns the MCP tool definition for registration.
func (t *DepAddTool) Definition() mcp.Tool {
	return mcp.NewTool("dep_add",
		mcp.WithDescription(
			"Record that one task depends on another. Ids may reference any "+
				"backend, including ones not currently configured; existence "+
				"is not checked. Re-adding an existing edge is a no-op.",
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

// Handle processes the dep_add tool call.
func (t *DepAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from := req.GetString("from", "")
	to := req.GetString("to", "")
	for _, id := range []string{from, to} {
		if _, _, err := backend.ParseID(id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	created, err := t.graph.AddDependency(ctx, from, to)
	if err != nil {
		return errorResult(err)
	}

	var b strings.Builder
	if created {
		fmt.Fprintf(&b, "🔗 `%s` now depends on `%s`.", from, to)
	} else {
		fmt.Fprintf(&b, "`%s` already depends on `%s`; nothing changed.", from, to)
	}

	if created {
		b.WriteString(cycleWarnings(ctx, t.graph))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// cycleWarnings reports any dependency cycles in the stored graph. The
// store accepts cycle-closing edges, so new loops are surfaced here
// instead of failing the write.
func cycleWarnings(ctx context.Context, g *graph.Store) string {
	cycles, err := g.DetectCycles(ctx)
	if err != nil {
		return warningsSection([]string{fmt.Sprintf("cycle check failed: %v", err)})
	}

	var warnings []string
	for _, cycle := range cycles {
		warnings = append(warnings, fmt.Sprintf(
			"dependency cycle: %s -> %s", strings.Join(cycle, " -> "), cycle[0]))
	}
	return warningsSection(warnings)
}
