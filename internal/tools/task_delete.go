package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/taskroute/internal/backend"
)

// TaskDeleteTool handles the task_delete MCP tool.
type TaskDeleteTool struct {
	router *backend.Router
}

// NewTaskDeleteTool creates a TaskDeleteTool backed by the router.
func NewTaskDeleteTool(router *backend.Router) *TaskDeleteTool {
	return &TaskDeleteTool{router: router}
}

// Definition returns the MCP tool definition for registration.
func (t *TaskDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("task_delete",
		mcp.WithDescription(
			"Delete a task from its owning backend. Deleting a task that "+
				"does not exist is not an error; the result says whether "+
				"anything was removed. Dependency edges pointing at the id "+
				"are left in place.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Qualified task id, prefix#local."),
		),
	)
}

// Handle processes the task_delete tool call.
func (t *TaskDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	removed, err := t.router.Delete(ctx, id)
	if err != nil {
		return errorResult(err)
	}

	if !removed {
		return mcp.NewToolResultText(fmt.Sprintf("Task `%s` was not found; nothing deleted.", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("🗑️ Deleted `%s`.", id)), nil
}
