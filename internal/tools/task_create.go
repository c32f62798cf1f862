package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/taskroute/internal/backend"
	"github.com/HendryAvila/taskroute/internal/task"
)

// TaskCreateTool handles the task_create MCP tool.
type TaskCreateTool struct {
	router *backend.Router
}

// NewTaskCreateTool creates a TaskCreateTool backed by the router.
func NewTaskCreateTool(router *backend.Router) *TaskCreateTool {
	return &TaskCreateTool{router: router}
}

// Definition returns the MCP tool definition for registration.
func (t *TaskCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("task_create",
		mcp.WithDescription(
			"Create a task. The backend parameter selects where it lives; "+
				"omitted, the configured default backend is used. Returns the "+
				"new task with its qualified id.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("One-line task title."),
		),
		mcp.WithString("spec",
			mcp.Description("Markdown spec body for the task."),
		),
		mcp.WithString("status",
			mcp.Description("Initial status. Default: TODO."),
			mcp.Enum("TODO", "IN-PROGRESS", "IN-REVIEW", "DONE", "BLOCKED"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Priority, 0 (default) to 5 (urgent)."),
		),
		mcp.WithString("backend",
			mcp.Description("Backend prefix to create in (e.g. \"md\", \"gh\")."),
		),
	)
}

// Handle processes the task_create tool call.
func (t *TaskCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := task.Draft{
		Title:    req.GetString("title", ""),
		Spec:     req.GetString("spec", ""),
		Status:   task.Status(req.GetString("status", "")),
		Priority: int(req.GetFloat("priority", 0)),
	}
	if err := d.Normalize(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	created, err := t.router.Create(ctx, req.GetString("backend", ""), d)
	if err != nil {
		return errorResult(err)
	}

	text := fmt.Sprintf("✅ Created `%s` — **%s** (%s)\n\n%s",
		created.ID, created.Title, created.Status, renderTask(created))
	return mcp.NewToolResultText(text), nil
}
