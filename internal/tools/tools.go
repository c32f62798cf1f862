// Package tools implements the MCP tool handlers for taskroute.
//
// Each tool is a struct that receives its dependencies at construction
// and exposes Definition + Handle for registration. Caller mistakes
// (malformed ids, unknown backends, missing tasks) come back as tool
// error results; backend faults surface as Go errors so the server's
// recovery middleware reports them as protocol failures.
package tools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/taskroute/internal/task"
	"github.com/HendryAvila/taskroute/internal/taskerr"
)

// errorResult classifies an operation error: caller errors become tool
// error results, everything else propagates.
func errorResult(err error) (*mcp.CallToolResult, error) {
	if taskerr.IsCallerError(err) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// statusMarker is the visual shorthand used in listings.
func statusMarker(s task.Status) string {
	switch s {
	case task.StatusDone:
		return "✅"
	case task.StatusInProgress:
		return "🔄"
	case task.StatusInReview:
		return "👀"
	case task.StatusBlocked:
		return "⛔"
	default:
		return "⬜"
	}
}

// taskTable renders tasks as a markdown table.
func taskTable(tasks []task.Task) string {
	var b strings.Builder
	b.WriteString("| ID | Status | Priority | Title |\n")
	b.WriteString("|----|--------|----------|-------|\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "| `%s` | %s %s | %d | %s |\n",
			t.ID, statusMarker(t.Status), t.Status, t.Priority, t.Title)
	}
	return b.String()
}

// renderTask renders one task in full.
func renderTask(t task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Task `%s`\n\n", t.ID)
	fmt.Fprintf(&b, "**Title:** %s\n", t.Title)
	fmt.Fprintf(&b, "**Status:** %s %s\n", statusMarker(t.Status), t.Status)
	fmt.Fprintf(&b, "**Priority:** %d\n", t.Priority)
	if t.CreatedAt != "" {
		fmt.Fprintf(&b, "**Created:** %s\n", t.CreatedAt)
	}
	if t.UpdatedAt != "" {
		fmt.Fprintf(&b, "**Updated:** %s\n", t.UpdatedAt)
	}
	if t.Spec != "" {
		fmt.Fprintf(&b, "\n## Spec\n\n%s\n", t.Spec)
	}
	return b.String()
}

// warningsSection renders aggregate warnings, empty input included.
func warningsSection(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n## Warnings\n\n")
	for _, w := range warnings {
		fmt.Fprintf(&b, "- ⚠️ %s\n", w)
	}
	return b.String()
}
