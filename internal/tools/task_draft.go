package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/taskroute/internal/backend"
	"github.com/HendryAvila/taskroute/internal/task"
)

// Drafter expands a one-line idea into a full task draft.
// *assist.Client satisfies it.
type Drafter interface {
	DraftSpec(ctx context.Context, idea string) (task.Draft, error)
}

// TaskDraftTool handles the task_draft MCP tool. It is only registered
// when an Anthropic API key is configured.
type TaskDraftTool struct {
	drafter Drafter
	router  *backend.Router
}

// NewTaskDraftTool creates a TaskDraftTool.
func NewTaskDraftTool(drafter Drafter, router *backend.Router) *TaskDraftTool {
	return &TaskDraftTool{drafter: drafter, router: router}
}

// Definition returns the MCP tool definition for registration.
func (t *TaskDraftTool) Definition() mcp.Tool {
	return mcp.NewTool("task_draft",
		mcp.WithDescription(
			"Expand a one-line idea into a full task draft (title, spec, "+
				"priority) using Claude. By default the draft is only returned "+
				"for review; set create=true to file it immediately.",
		),
		mcp.WithString("idea",
			mcp.Required(),
			mcp.Description("One-line description of the work."),
		),
		mcp.WithBoolean("create",
			mcp.Description("If true, create the drafted task right away (default: false)."),
		),
		mcp.WithString("backend",
			mcp.Description("Backend prefix to create in when create is true."),
		),
	)
}

// Handle processes the task_draft tool call.
func (t *TaskDraftTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idea := req.GetString("idea", "")
	if strings.TrimSpace(idea) == "" {
		return mcp.NewToolResultError("idea is required"), nil
	}

	d, err := t.drafter.DraftSpec(ctx, idea)
	if err != nil {
		return nil, fmt.Errorf("drafting task: %w", err)
	}

	if boolArg(req, "create", false) {
		created, err := t.router.Create(ctx, req.GetString("backend", ""), d)
		if err != nil {
			return errorResult(err)
		}
		text := fmt.Sprintf("✅ Created `%s` from draft\n\n%s", created.ID, renderTask(created))
		return mcp.NewToolResultText(text), nil
	}

	var b strings.Builder
	b.WriteString("# Draft\n\n")
	fmt.Fprintf(&b, "**Title:** %s\n", d.Title)
	fmt.Fprintf(&b, "**Priority:** %d\n", d.Priority)
	if d.Spec != "" {
		fmt.Fprintf(&b, "\n## Spec\n\n%s\n", d.Spec)
	}
	b.WriteString("\nReview and file it with task_create, or rerun with create=true.\n")
	return mcp.NewToolResultText(b.String()), nil
}
