package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/taskroute/internal/backend"
)

// TaskGetTool handles the task_get MCP tool.
type TaskGetTool struct {
	router *backend.Router
}

// NewTaskGetTool creates a TaskGetTool backed by the router.
func NewTaskGetTool(router *backend.Router) *TaskGetTool {
	return &TaskGetTool{router: router}
}

// Definition returns the MCP tool definition for registration.
func (t *TaskGetTool) Definition() mcp.Tool {
	return mcp.NewTool("task_get",
		mcp.WithDescription(
			"Fetch one task by its qualified id (prefix#local, e.g. \"md#12\" "+
				"or \"gh#341\"). The prefix picks the backend; the local id is "+
				"interpreted by that backend.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Qualified task id, prefix#local."),
		),
	)
}

// Handle processes the task_get tool call.
func (t *TaskGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	got, err := t.router.Get(ctx, id)
	if err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(renderTask(got)), nil
}
