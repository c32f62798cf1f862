// Package resources implements the MCP resource handlers.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (taskroute://...) following
// MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/taskroute/internal/backend"
	"github.com/HendryAvila/taskroute/internal/graph"
	"github.com/HendryAvila/taskroute/internal/task"
)

// Handler serves the taskroute resource endpoints.
type Handler struct {
	router *backend.Router
	graph  *graph.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(router *backend.Router, g *graph.Store) *Handler {
	return &Handler{router: router, graph: g}
}

// statusReport is the shape served by the status resource.
type statusReport struct {
	Backends []string          `json:"backends"`
	Total    int               `json:"total_tasks"`
	ByStatus map[string]int    `json:"by_status"`
	Edges    int               `json:"dependency_edges"`
	Warnings []backend.Warning `json:"warnings,omitempty"`
}

// StatusResource returns the MCP resource definition for tracker status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"taskroute://status",
		"Task Tracker Status",
		mcp.WithResourceDescription("Registered backends, task counts by status, and dependency graph size"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current tracker snapshot as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	res, err := h.router.List(ctx, task.Filter{})
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	edges, err := h.graph.Edges(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	report := statusReport{
		Backends: h.router.Prefixes(),
		Total:    len(res.Tasks),
		ByStatus: make(map[string]int),
		Edges:    len(edges),
		Warnings: res.Warnings,
	}
	for _, t := range res.Tasks {
		report.ByStatus[string(t.Status)]++
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
