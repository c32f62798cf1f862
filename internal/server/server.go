// Package server wires the taskroute components and creates the MCP
// server instance.
//
// This is the composition root: it builds the concrete backend adapters,
// the router, the graph store, and the planner, and injects them into
// the tools that depend on them. No task logic lives here, only wiring.
package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/taskroute/internal/assist"
	"github.com/HendryAvila/taskroute/internal/backend"
	"github.com/HendryAvila/taskroute/internal/backend/github"
	"github.com/HendryAvila/taskroute/internal/backend/jsonfile"
	"github.com/HendryAvila/taskroute/internal/backend/markdown"
	"github.com/HendryAvila/taskroute/internal/backend/sqlite"
	"github.com/HendryAvila/taskroute/internal/config"
	"github.com/HendryAvila/taskroute/internal/graph"
	"github.com/HendryAvila/taskroute/internal/logging"
	"github.com/HendryAvila/taskroute/internal/prompts"
	"github.com/HendryAvila/taskroute/internal/resources"
	"github.com/HendryAvila/taskroute/internal/route"
	"github.com/HendryAvila/taskroute/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Engine is the wired core shared by the MCP server and the CLI: the
// backend registry, the dependency graph, and the planner over both.
type Engine struct {
	Router  *backend.Router
	Graph   *graph.Store
	Planner *route.Planner
}

// BuildEngine wires the adapters, router, graph store, and planner for
// the project rooted at root. Relative paths in cfg are resolved against
// root.
//
// The returned cleanup function closes every store that was opened and
// must be called on shutdown (typically via defer). It is always non-nil
// and safe to call even when BuildEngine returns an error.
func BuildEngine(root string, cfg *config.Config, logger *logging.Logger) (*Engine, func(), error) {
	if logger == nil {
		logger = logging.Discard()
	}

	router := backend.NewRouter(backend.Options{
		DefaultPrefix: cfg.DefaultBackend,
		CallTimeout:   time.Duration(cfg.Route.CallTimeoutMs) * time.Millisecond,
		Logger:        logger,
	})

	closers, err := registerBackends(router, root, cfg, logger)
	if err != nil {
		runClosers(closers, logger)
		return nil, noop, fmt.Errorf("registering backends: %w", err)
	}

	// The graph store carries the dep tools and the planner; unlike a
	// single unreachable backend, losing it means losing the point of
	// the server, so failure here is fatal.
	g, err := graph.Open(resolvePath(root, cfg.Graph.Path))
	if err != nil {
		runClosers(closers, logger)
		return nil, noop, fmt.Errorf("opening dependency graph: %w", err)
	}
	closers = append(closers, g.Close)

	eng := &Engine{
		Router:  router,
		Graph:   g,
		Planner: route.NewPlanner(g, router, logger),
	}
	cleanup := func() { runClosers(closers, logger) }
	return eng, cleanup, nil
}

// New creates and configures the MCP server for the project rooted at
// root.
//
// The returned cleanup function closes every store the server opened and
// must be called on shutdown (typically via defer). It is always non-nil
// and safe to call even when New returns an error.
func New(root string, cfg *config.Config, logger *logging.Logger) (*server.MCPServer, func(), error) {
	if logger == nil {
		logger = logging.Discard()
	}

	eng, cleanup, err := BuildEngine(root, cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	router, g, planner := eng.Router, eng.Graph, eng.Planner

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"taskroute",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register task tools ---

	listTool := tools.NewTaskListTool(router)
	s.AddTool(listTool.Definition(), listTool.Handle)

	getTool := tools.NewTaskGetTool(router)
	s.AddTool(getTool.Definition(), getTool.Handle)

	createTool := tools.NewTaskCreateTool(router)
	s.AddTool(createTool.Definition(), createTool.Handle)

	statusTool := tools.NewTaskStatusTool(router)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	deleteTool := tools.NewTaskDeleteTool(router)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	// --- Register dependency tools ---

	depAddTool := tools.NewDepAddTool(g)
	s.AddTool(depAddTool.Definition(), depAddTool.Handle)

	depRemoveTool := tools.NewDepRemoveTool(g)
	s.AddTool(depRemoveTool.Definition(), depRemoveTool.Handle)

	depListTool := tools.NewDepListTool(g)
	s.AddTool(depListTool.Definition(), depListTool.Handle)

	routePlanTool := tools.NewRoutePlanTool(planner)
	s.AddTool(routePlanTool.Definition(), routePlanTool.Handle)

	// --- Register the drafting tool ---
	//
	// Drafting needs an Anthropic API key. Without one the rest of the
	// server works normally; we log why the tool is missing and move on.

	if drafter, err := assist.NewClient(os.Getenv(cfg.Assist.APIKeyEnv), cfg.Assist.Model, cfg.Assist.MaxTokens); err != nil {
		logger.Info("task_draft disabled", map[string]any{"reason": err.Error()})
	} else {
		draftTool := tools.NewTaskDraftTool(drafter, router)
		s.AddTool(draftTool.Definition(), draftTool.Handle)
	}

	// --- Register prompts ---

	planPrompt := prompts.NewPlanPrompt()
	s.AddPrompt(planPrompt.Definition(), planPrompt.Handle)

	standupPrompt := prompts.NewStandupPrompt()
	s.AddPrompt(standupPrompt.Definition(), standupPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(router, g)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return s, cleanup, nil
}

// noop is the cleanup returned alongside errors, so callers can always
// defer the result of New.
func noop() {}

// registerBackends builds one adapter per enabled backend and registers
// it with the router. An adapter that fails to initialize is skipped
// with a warning: the server stays useful on the backends that work.
func registerBackends(router *backend.Router, root string, cfg *config.Config, logger *logging.Logger) ([]func() error, error) {
	var closers []func() error

	if cfg.Backends.Markdown.Enabled {
		if err := router.Register(markdown.New(resolvePath(root, cfg.Backends.Markdown.Dir))); err != nil {
			return closers, err
		}
	}

	if cfg.Backends.JSONFile.Enabled {
		if err := router.Register(jsonfile.New(resolvePath(root, cfg.Backends.JSONFile.Path))); err != nil {
			return closers, err
		}
	}

	if cfg.Backends.GitHub.Enabled {
		gh := github.New(github.Options{
			Repo:    cfg.Backends.GitHub.Repo,
			BaseURL: cfg.Backends.GitHub.BaseURL,
			Token:   os.Getenv(cfg.Backends.GitHub.TokenEnv),
		})
		if err := router.Register(gh); err != nil {
			return closers, err
		}
	}

	if cfg.Backends.Database.Enabled {
		store, err := sqlite.Open(resolvePath(root, cfg.Backends.Database.Path))
		if err != nil {
			logger.Warn("db backend disabled", map[string]any{"error": err.Error()})
		} else {
			closers = append(closers, store.Close)
			if err := router.Register(store); err != nil {
				return closers, err
			}
		}
	}

	return closers, nil
}

// resolvePath anchors a config-relative path at the project root.
func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// runClosers runs cleanup functions in reverse registration order.
func runClosers(closers []func() error, logger *logging.Logger) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("closing store", map[string]any{"error": err.Error()})
		}
	}
}

// serverInstructions returns the system instructions that tell the AI
// how to use taskroute effectively.
func serverInstructions() string {
	return `You have access to taskroute, a task tracker that federates several
storage backends behind one id namespace and plans work order from a
dependency graph.

## QUALIFIED IDS

Every task id is prefix#local:
- md#12   — markdown file backend (one file per task)
- json#3  — JSON document backend (one shared file)
- gh#45   — GitHub issues backend (issue number is the local id)
- db#7    — SQLite backend

Always pass the full qualified id to tools. Ids are case-sensitive and
split on the FIRST '#'.

## TOOLS

Tasks:
- task_list: federated listing across every backend (optionally one
  backend, optionally one status). Unreachable backends degrade to
  warnings; read them.
- task_get / task_create / task_set_status / task_delete.

Dependencies:
- dep_add / dep_remove: record that one task depends on another.
  Endpoints may reference tasks that do not exist yet; edges are cheap
  and idempotent.
- dep_list: edges around one task, both directions.

Planning:
- route_plan: the implementation route for a target task. Phases are
  ordered so working top to bottom never hits a step whose
  dependencies are still open. Steps marked "ready" have every direct
  dependency DONE.
- task_draft (when configured): expand a one-line idea into a full
  draft with Claude before filing it.

## WORKFLOW

When the user asks "what should I work on" or wants to start a feature
with prerequisites:
1. route_plan toward the target task, default strategy.
2. Present the ready steps first; call out blocked ones and why.
3. As work finishes, task_set_status DONE and re-plan.

When the user describes new work, create the task where related work
already lives (same backend), then dep_add its prerequisites right
away; plans are only as good as the recorded edges.

## STATUS VALUES

TODO, IN-PROGRESS, IN-REVIEW, DONE, BLOCKED. Only DONE counts toward
readiness. A route step can also show UNKNOWN when its backend could
not be reached; treat those as possibly-blocking.`
}
