// Package assist turns one-line task ideas into reviewable drafts using
// the Anthropic API. The model proposes a title, a spec body, and a
// priority; nothing is written anywhere until the caller creates the
// task from the returned draft.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/HendryAvila/taskroute/internal/task"
)

// Client wraps the Anthropic SDK for drafting calls.
type Client struct {
	inner     anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewClient creates a drafting client. apiKey defaults to the
// ANTHROPIC_API_KEY env var; model defaults to Claude Sonnet.
func NewClient(apiKey, model string, maxTokens int) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	m := anthropic.ModelClaudeSonnet4_6
	if model != "" {
		m = anthropic.Model(model)
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &Client{inner: inner, model: m, maxTokens: int64(maxTokens)}, nil
}

const draftPrompt = `You are an experienced engineering lead turning a rough task idea into a well-scoped tracker entry.

Rules:
- The title is one imperative sentence under 80 characters.
- The spec states the goal, the concrete acceptance criteria, and anything explicitly out of scope.
- Priority is an integer from 0 (default, unremarkable) to 5 (drop everything); pick based on urgency signals in the idea, 0 when unclear.
- Do not invent requirements the idea does not imply.

Return your answer as JSON with this exact structure:
{
  "title": "<task title>",
  "spec": "<markdown spec body>",
  "priority": <0-5>
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.

Here is the idea:
`

// buildPrompt constructs the full drafting prompt.
func buildPrompt(idea string) string {
	return draftPrompt + strings.TrimSpace(idea)
}

// DraftSpec asks the model to expand an idea into a task draft.
func (c *Client) DraftSpec(ctx context.Context, idea string) (task.Draft, error) {
	if strings.TrimSpace(idea) == "" {
		return task.Draft{}, fmt.Errorf("idea must not be empty")
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(idea))),
		},
	})
	if err != nil {
		return task.Draft{}, fmt.Errorf("claude API call: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return parseDraft(text, idea)
}

// parseDraft decodes the model output into a draft, tolerating stray
// fences and out-of-range priorities.
func parseDraft(text, idea string) (task.Draft, error) {
	text = stripJSONFences(text)

	var out struct {
		Title    string `json:"title"`
		Spec     string `json:"spec"`
		Priority int    `json:"priority"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return task.Draft{}, fmt.Errorf("parse claude response: %w\nraw: %s", err, text)
	}

	d := task.Draft{
		Title:    strings.TrimSpace(out.Title),
		Spec:     strings.TrimSpace(out.Spec),
		Priority: out.Priority,
		Status:   task.StatusTodo,
	}
	if d.Title == "" {
		d.Title = strings.TrimSpace(idea)
	}
	if d.Priority < 0 {
		d.Priority = 0
	}
	if d.Priority > 5 {
		d.Priority = 5
	}
	return d, nil
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
