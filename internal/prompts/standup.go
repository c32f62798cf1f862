package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StandupPrompt handles the standup MCP prompt. It instructs the AI to
// read and present the current state of every backend.
type StandupPrompt struct{}

// NewStandupPrompt creates a StandupPrompt.
func NewStandupPrompt() *StandupPrompt {
	return &StandupPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StandupPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("standup",
		mcp.WithPromptDescription(
			"Summarize the current state of all tasks: what is moving, "+
				"what is blocked, and what finished recently.",
		),
	)
}

// Handle processes the standup prompt request.
func (p *StandupPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Task standup summary",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `task_list` to read every backend.\n\n" +
						"Then:\n" +
						"1. Group the tasks by status: IN-PROGRESS and IN-REVIEW first, then BLOCKED, then TODO, then DONE\n" +
						"2. For each BLOCKED task, run `dep_list` and say what it is waiting on\n" +
						"3. Mention any backend warnings from the listing; those tasks are invisible right now\n" +
						"4. Keep it short: one line per task, like a standup",
				),
			},
		},
	}, nil
}
