// Package route turns the dependency graph into an ordered, strategy-
// selectable implementation plan for a target task.
//
// A plan is derived state: recomputed on every request, never persisted.
// The planner walks prerequisites breadth-first from the target, fetches
// metadata for every discovered task through the backend router, then
// orders and groups the steps by graph depth.
package route

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/HendryAvila/taskroute/internal/graph"
	"github.com/HendryAvila/taskroute/internal/logging"
	"github.com/HendryAvila/taskroute/internal/task"
)

// ─── Strategy enum ───────────────────────────────────────────────────────────

// Strategy is the ordering policy applied when generating a route.
type Strategy string

const (
	// StrategyReadyFirst orders deepest prerequisites first, so working
	// top to bottom never hits a step whose dependencies are still open.
	StrategyReadyFirst Strategy = "ready-first"
	// StrategyShortestPath orders by depth toward the target, for quick
	// critical-chain views.
	StrategyShortestPath Strategy = "shortest-path"
	// StrategyValueFirst is ready-first with priority deciding order
	// inside a depth level.
	StrategyValueFirst Strategy = "value-first"
)

// validStrategies is the set of allowed strategies.
var validStrategies = map[Strategy]bool{
	StrategyReadyFirst:   true,
	StrategyShortestPath: true,
	StrategyValueFirst:   true,
}

// ParseStrategy normalizes a strategy string. Empty selects the default
// ready-first.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return StrategyReadyFirst, nil
	}
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if !validStrategies[st] {
		return "", fmt.Errorf("invalid strategy %q: must be one of: ready-first, shortest-path, value-first", s)
	}
	return st, nil
}

// ─── Step classification ─────────────────────────────────────────────────────

// StatusUnknown marks a step whose metadata lookup failed. It is not a
// real task status; it keeps the step in the plan under partial outages.
const StatusUnknown = task.Status("UNKNOWN")

// StepState is the readiness classification of one step.
type StepState string

const (
	// StateDone means the task itself is DONE: neither ready nor blocked.
	StateDone StepState = "done"
	// StateReady means every direct dependency is DONE.
	StateReady StepState = "ready"
	// StateBlocked means at least one direct dependency is not DONE.
	StateBlocked StepState = "blocked"
)

// ─── Output shapes ───────────────────────────────────────────────────────────

// Step is one task in the plan with its position in the graph.
type Step struct {
	TaskID       string      `json:"task_id"`
	Title        string      `json:"title"`
	Status       task.Status `json:"status"`
	Priority     int         `json:"priority,omitempty"`
	Depth        int         `json:"depth"`
	Dependencies []string    `json:"dependencies,omitempty"`
	State        StepState   `json:"state"`
}

// Phase groups the steps that share a depth, in strategy order.
type Phase struct {
	Depth int    `json:"depth"`
	Steps []Step `json:"steps"`
}

// Summary holds the plan-level counts.
type Summary struct {
	TotalTasks   int `json:"total_tasks"`
	ReadyTasks   int `json:"ready_tasks"`
	BlockedTasks int `json:"blocked_tasks"`
	DoneTasks    int `json:"done_tasks"`
}

// Route is the computed plan for one target. Depth 0 is the target
// itself; greater depths are transitive prerequisites.
type Route struct {
	Target   string   `json:"target"`
	Strategy Strategy `json:"strategy"`
	Steps    []Step   `json:"steps"`
	Phases   []Phase  `json:"phases"`
	Summary  Summary  `json:"summary"`
	Warnings []string `json:"warnings,omitempty"`
}

// ─── Planner ─────────────────────────────────────────────────────────────────

// DepSource is the graph query surface the planner traverses.
// *graph.Store satisfies it.
type DepSource interface {
	ListDependencies(ctx context.Context, taskID string) ([]string, error)
}

// TaskSource is the metadata lookup surface. *backend.Router satisfies it.
type TaskSource interface {
	Routable(id string) error
	Get(ctx context.Context, id string) (task.Task, error)
}

const (
	// metadataWorkers bounds the concurrent metadata fan-out.
	metadataWorkers = 8
	// metadataTimeout bounds each metadata lookup.
	metadataTimeout = 10 * time.Second
)

// Planner computes routes from the dependency graph plus task metadata.
type Planner struct {
	deps   DepSource
	source TaskSource
	logger *logging.Logger
}

// NewPlanner creates a Planner.
func NewPlanner(deps DepSource, source TaskSource, logger *logging.Logger) *Planner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Planner{deps: deps, source: source, logger: logger}
}

// queueItem is one BFS frontier entry.
type queueItem struct {
	id    string
	depth int
}

// Plan builds the route for target under the given strategy.
//
// The traversal records the FIRST depth at which an identifier is seen
// and never revisits it, so cyclic graphs terminate; cycles found in the
// discovered subgraph are surfaced as warnings, not errors.
func (p *Planner) Plan(ctx context.Context, target string, strategy Strategy) (*Route, error) {
	if strategy == "" {
		strategy = StrategyReadyFirst
	}
	if !validStrategies[strategy] {
		return nil, fmt.Errorf("invalid strategy %q: must be one of: ready-first, shortest-path, value-first", strategy)
	}

	// An unroutable target is an error, never an empty plan.
	if err := p.source.Routable(target); err != nil {
		return nil, err
	}

	// Reverse BFS over prerequisites, shortest-edge-count depth.
	depthOf := map[string]int{target: 0}
	order := []string{target}
	directDeps := make(map[string][]string)

	queue := []queueItem{{id: target, depth: 0}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		deps, err := p.deps.ListDependencies(ctx, current.id)
		if err != nil {
			return nil, fmt.Errorf("walking dependencies of %s: %w", current.id, err)
		}
		directDeps[current.id] = deps

		for _, dep := range deps {
			if _, seen := depthOf[dep]; seen {
				continue
			}
			depthOf[dep] = current.depth + 1
			order = append(order, dep)
			queue = append(queue, queueItem{id: dep, depth: current.depth + 1})
		}
	}

	metas, warnings := p.fetchMetadata(ctx, order)

	// Assemble steps with readiness classification.
	steps := make([]Step, 0, len(order))
	for _, id := range order {
		meta := metas[id]
		step := Step{
			TaskID:       id,
			Title:        meta.Title,
			Status:       meta.Status,
			Priority:     meta.Priority,
			Depth:        depthOf[id],
			Dependencies: directDeps[id],
		}
		step.State = classify(step.Status, directDeps[id], metas)
		steps = append(steps, step)
	}

	sortSteps(steps, strategy)

	for _, cycle := range graph.FindCycles(directDeps) {
		warnings = append(warnings, fmt.Sprintf(
			"dependency cycle detected: %s -> %s", strings.Join(cycle, " -> "), cycle[0]))
	}

	r := &Route{
		Target:   target,
		Strategy: strategy,
		Steps:    steps,
		Phases:   groupPhases(steps),
		Summary:  summarize(steps),
		Warnings: warnings,
	}
	return r, nil
}

// fetchMetadata looks up every id through the router with a bounded
// concurrent fan-out. Lookup failures produce an UNKNOWN-status entry
// and a warning; the step is retained so the plan stays complete under
// partial backend outages.
func (p *Planner) fetchMetadata(ctx context.Context, ids []string) (map[string]task.Task, []string) {
	type slot struct {
		t   task.Task
		err error
	}
	slots := make([]slot, len(ids))

	sem := make(chan struct{}, metadataWorkers)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
			defer cancel()

			t, err := p.source.Get(callCtx, id)
			slots[idx] = slot{t: t, err: err}
		}(i, id)
	}
	wg.Wait()

	metas := make(map[string]task.Task, len(ids))
	var warnings []string
	for i, id := range ids {
		if slots[i].err != nil {
			p.logger.Warn("metadata lookup failed, keeping step with unknown status", map[string]any{
				"task":  id,
				"error": slots[i].err.Error(),
			})
			warnings = append(warnings, fmt.Sprintf("metadata unavailable for %s: %v", id, slots[i].err))
			metas[id] = task.Task{ID: id, Status: StatusUnknown}
			continue
		}
		metas[id] = slots[i].t
	}
	return metas, warnings
}

// classify derives the readiness state of a task from its own status and
// its direct dependencies. UNKNOWN metadata never counts as DONE.
func classify(status task.Status, deps []string, metas map[string]task.Task) StepState {
	if status == task.StatusDone {
		return StateDone
	}
	for _, dep := range deps {
		if metas[dep].Status != task.StatusDone {
			return StateBlocked
		}
	}
	return StateReady
}

// sortSteps orders steps in place according to the strategy. Ties always
// fall back to the qualified id, keeping output stable.
func sortSteps(steps []Step, strategy Strategy) {
	switch strategy {
	case StrategyShortestPath:
		sort.Slice(steps, func(i, j int) bool {
			if steps[i].Depth != steps[j].Depth {
				return steps[i].Depth < steps[j].Depth
			}
			return steps[i].TaskID < steps[j].TaskID
		})
	case StrategyValueFirst:
		sort.Slice(steps, func(i, j int) bool {
			if steps[i].Depth != steps[j].Depth {
				return steps[i].Depth > steps[j].Depth
			}
			if steps[i].Priority != steps[j].Priority {
				return steps[i].Priority > steps[j].Priority
			}
			return steps[i].TaskID < steps[j].TaskID
		})
	default: // ready-first
		sort.Slice(steps, func(i, j int) bool {
			if steps[i].Depth != steps[j].Depth {
				return steps[i].Depth > steps[j].Depth
			}
			return steps[i].TaskID < steps[j].TaskID
		})
	}
}

// groupPhases splits sorted steps into contiguous same-depth groups.
func groupPhases(steps []Step) []Phase {
	var phases []Phase
	for _, step := range steps {
		if n := len(phases); n == 0 || phases[n-1].Depth != step.Depth {
			phases = append(phases, Phase{Depth: step.Depth})
		}
		last := len(phases) - 1
		phases[last].Steps = append(phases[last].Steps, step)
	}
	return phases
}

func summarize(steps []Step) Summary {
	s := Summary{TotalTasks: len(steps)}
	for _, step := range steps {
		switch step.State {
		case StateDone:
			s.DoneTasks++
		case StateReady:
			s.ReadyTasks++
		case StateBlocked:
			s.BlockedTasks++
		}
	}
	return s
}
