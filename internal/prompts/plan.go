// Package prompts implements the MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// PlanPrompt handles the plan-next MCP prompt. It guides the AI to
// compute and present the work order toward a target task.
type PlanPrompt struct{}

// NewPlanPrompt creates a PlanPrompt.
func NewPlanPrompt() *PlanPrompt {
	return &PlanPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *PlanPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("plan-next",
		mcp.WithPromptDescription(
			"Figure out what to work on next. Computes the dependency route "+
				"toward a target task and presents the steps that are ready now.",
		),
		mcp.WithArgument("target",
			mcp.ArgumentDescription("Qualified id of the task to plan toward (e.g. md#12). Omit to pick one first."),
		),
		mcp.WithArgument("strategy",
			mcp.ArgumentDescription("Ordering strategy: ready-first, shortest-path, or value-first. Default: ready-first"),
		),
	)
}

// Handle processes the plan-next prompt request.
func (p *PlanPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	target := ""
	strategy := "ready-first"
	if args := req.Params.Arguments; args != nil {
		if t, ok := args["target"]; ok && t != "" {
			target = t
		}
		if s, ok := args["strategy"]; ok && s != "" {
			strategy = s
		}
	}

	var text string
	if target == "" {
		text = "I want to figure out what to work on next.\n\n" +
			"Please:\n" +
			"1. Run `task_list` and show me the open tasks (skip DONE)\n" +
			"2. Ask me which task is the goal I care about\n" +
			"3. Run `route_plan` toward that task with strategy '" + strategy + "'\n" +
			"4. Present the ready steps first, then the blocked ones with what blocks them\n" +
			"5. Recommend the single step I should pick up now, and why"
	} else {
		text = fmt.Sprintf(
			"I want to work toward `%s`.\n\n"+
				"Please:\n"+
				"1. Run `route_plan` with target='%s' and strategy='%s'\n"+
				"2. Present the ready steps first, then the blocked ones with what blocks them\n"+
				"3. If any step shows status UNKNOWN, tell me which backend failed\n"+
				"4. Recommend the single step I should pick up now, and why",
			target, target, strategy,
		)
	}

	return &mcp.GetPromptResult{
		Description: "Plan the next work item",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}, nil
}
