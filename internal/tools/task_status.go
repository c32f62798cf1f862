package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/taskroute/internal/backend"
	"github.com/HendryAvila/taskroute/internal/task"
)

// TaskStatusTool handles the task_set_status MCP tool.
type TaskStatusTool struct {
	router *backend.Router
}

// NewTaskStatusTool creates a TaskStatusTool backed by the router.
func NewTaskStatusTool(router *backend.Router) *TaskStatusTool {
	return &TaskStatusTool{router: router}
}

// Definition returns the MCP tool definition for registration.
func (t *TaskStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("task_set_status",
		mcp.WithDescription(
			"Move a task to a new status. The id must be qualified "+
				"(e.g. \"md#12\"); the change is written to the owning backend.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Qualified task id, prefix#local."),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New status."),
			mcp.Enum("TODO", "IN-PROGRESS", "IN-REVIEW", "DONE", "BLOCKED"),
		),
	)
}

// Handle processes the task_set_status tool call.
func (t *TaskStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	st, err := task.ParseStatus(req.GetString("status", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := t.router.SetStatus(ctx, id, st); err != nil {
		return errorResult(err)
	}

	text := fmt.Sprintf("%s `%s` is now **%s**", statusMarker(st), id, st)
	return mcp.NewToolResultText(text), nil
}
