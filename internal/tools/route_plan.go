package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/taskroute/internal/route"
	"github.com/HendryAvila/taskroute/internal/task"
)

// RoutePlanTool handles the route_plan MCP tool.
type RoutePlanTool struct {
	planner *route.Planner
}

// NewRoutePlanTool creates a RoutePlanTool backed by the planner.
func NewRoutePlanTool(p *route.Planner) *RoutePlanTool {
	return &RoutePlanTool{planner: p}
}

// Definition returns the MCP tool definition for registration.
func (t *RoutePlanTool) Definition() mcp.Tool {
	return mcp.NewTool("route_plan",
		mcp.WithDescription(
			"Compute the implementation route for a target task: every "+
				"transitive prerequisite, grouped into phases by distance from "+
				"the target, with per-task readiness. Phases are ordered so "+
				"working top to bottom respects every dependency.",
		),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Qualified id of the task to plan toward."),
		),
		mcp.WithString("strategy",
			mcp.Description("Step ordering policy. Default: ready-first."),
			mcp.Enum("ready-first", "shortest-path", "value-first"),
		),
	)
}

// Handle processes the route_plan tool call.
func (t *RoutePlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target := req.GetString("target", "")
	if target == "" {
		return mcp.NewToolResultError("target is required"), nil
	}

	strategy, err := route.ParseStrategy(req.GetString("strategy", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r, err := t.planner.Plan(ctx, target, strategy)
	if err != nil {
		return errorResult(err)
	}

	return mcp.NewToolResultText(renderRoute(r)), nil
}

// renderRoute formats a computed route as markdown, phases first, then
// the flat strategy order.
func renderRoute(r *route.Route) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Route to `%s`\n\n", r.Target)
	fmt.Fprintf(&b, "**Strategy:** %s\n", r.Strategy)
	fmt.Fprintf(&b, "**Tasks:** %d total, %d ready, %d blocked, %d done\n",
		r.Summary.TotalTasks, r.Summary.ReadyTasks, r.Summary.BlockedTasks, r.Summary.DoneTasks)

	for i, ph := range r.Phases {
		if ph.Depth == 0 {
			fmt.Fprintf(&b, "\n## Phase %d (target)\n\n", i+1)
		} else {
			fmt.Fprintf(&b, "\n## Phase %d (depth %d)\n\n", i+1, ph.Depth)
		}
		b.WriteString(stepTable(ph.Steps))
	}

	if len(r.Steps) > 1 {
		b.WriteString("\n**Suggested order:** ")
		for i, s := range r.Steps {
			if i > 0 {
				b.WriteString(" -> ")
			}
			fmt.Fprintf(&b, "`%s`", s.TaskID)
		}
		b.WriteString("\n")
	}

	b.WriteString(warningsSection(r.Warnings))
	return b.String()
}

// stepTable renders one phase's steps as a markdown table.
func stepTable(steps []route.Step) string {
	var b strings.Builder
	b.WriteString("| ID | Status | State | Priority | Depends on | Title |\n")
	b.WriteString("|----|--------|-------|----------|------------|-------|\n")
	for _, s := range steps {
		fmt.Fprintf(&b, "| `%s` | %s | %s | %d | %s | %s |\n",
			s.TaskID, statusCell(s.Status), stateMarker(s.State), s.Priority,
			dependsCell(s.Dependencies), s.Title)
	}
	return b.String()
}

// statusCell renders a step status, including the synthetic UNKNOWN.
func statusCell(s task.Status) string {
	if s == route.StatusUnknown {
		return "❓ UNKNOWN"
	}
	return statusMarker(s) + " " + string(s)
}

// stateMarker is the visual shorthand for step readiness.
func stateMarker(s route.StepState) string {
	switch s {
	case route.StateDone:
		return "✅ done"
	case route.StateReady:
		return "🟢 ready"
	default:
		return "🔴 blocked"
	}
}

// dependsCell joins a step's direct dependencies for table display.
func dependsCell(deps []string) string {
	if len(deps) == 0 {
		return "-"
	}
	quoted := make([]string, len(deps))
	for i, d := range deps {
		quoted[i] = "`" + d + "`"
	}
	return strings.Join(quoted, ", ")
}
