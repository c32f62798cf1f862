package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/taskroute/internal/backend"
	"github.com/HendryAvila/taskroute/internal/task"
)

// TaskListTool handles the task_list MCP tool: the federated view over
// every configured backend.
type TaskListTool struct {
	router *backend.Router
}

// NewTaskListTool creates a TaskListTool backed by the router.
func NewTaskListTool(router *backend.Router) *TaskListTool {
	return &TaskListTool{router: router}
}

// Definition returns the MCP tool definition for registration.
func (t *TaskListTool) Definition() mcp.Tool {
	return mcp.NewTool("task_list",
		mcp.WithDescription(
			"List tasks across all configured backends in one view. "+
				"Backends that are unreachable are skipped and reported as warnings "+
				"instead of failing the whole listing.",
		),
		mcp.WithString("status",
			mcp.Description("Only show tasks with this status."),
			mcp.Enum("TODO", "IN-PROGRESS", "IN-REVIEW", "DONE", "BLOCKED"),
		),
		mcp.WithString("backend",
			mcp.Description("Only query this backend prefix (e.g. \"md\"). Default: all."),
		),
	)
}

// Handle processes the task_list tool call.
func (t *TaskListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var filter task.Filter
	if raw := req.GetString("status", ""); raw != "" {
		st, err := task.ParseStatus(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter.Status = st
	}

	prefix := req.GetString("backend", "")
	if prefix != "" {
		return t.listOne(ctx, prefix, filter)
	}

	res, err := t.router.List(ctx, filter)
	if err != nil {
		return errorResult(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Tasks (%d)\n\n", len(res.Tasks))
	if len(res.Tasks) == 0 {
		b.WriteString("No tasks found.\n")
	} else {
		b.WriteString(taskTable(res.Tasks))
	}

	var warnings []string
	for _, w := range res.Warnings {
		warnings = append(warnings, fmt.Sprintf("backend `%s`: %s", w.Prefix, w.Message))
	}
	b.WriteString(warningsSection(warnings))

	return mcp.NewToolResultText(b.String()), nil
}

// listOne queries a single backend, bypassing the fan-out.
func (t *TaskListTool) listOne(ctx context.Context, prefix string, filter task.Filter) (*mcp.CallToolResult, error) {
	be, err := t.router.Lookup(prefix)
	if err != nil {
		return errorResult(err)
	}

	tasks, err := be.ListTasks(ctx, filter)
	if err != nil {
		return errorResult(err)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	var b strings.Builder
	fmt.Fprintf(&b, "# Tasks in `%s` (%d)\n\n", prefix, len(tasks))
	if len(tasks) == 0 {
		b.WriteString("No tasks found.\n")
	} else {
		b.WriteString(taskTable(tasks))
	}
	return mcp.NewToolResultText(b.String()), nil
}
