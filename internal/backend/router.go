package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HendryAvila/taskroute/internal/logging"
	"github.com/HendryAvila/taskroute/internal/task"
	"github.com/HendryAvila/taskroute/internal/taskerr"
)

// defaultCallTimeout bounds each per-backend call inside aggregate
// operations so one slow adapter cannot stall the whole fan-out.
const defaultCallTimeout = 10 * time.Second

// Options configures a Router.
type Options struct {
	// DefaultPrefix is the backend used by Create when the caller does
	// not pick one. Empty means creation always requires a prefix.
	DefaultPrefix string

	// CallTimeout is the per-backend budget in aggregate operations.
	// Zero means defaultCallTimeout.
	CallTimeout time.Duration

	Logger *logging.Logger
}

// Router owns the prefix -> adapter registry and presents the single
// task-service contract used by every caller. It stores no task content.
type Router struct {
	mu       sync.RWMutex
	backends map[string]Backend

	defaultPrefix string
	callTimeout   time.Duration
	logger        *logging.Logger
}

// NewRouter creates an empty Router. Backends are registered once at
// start-up; there is no unregistration or hot reload.
func NewRouter(opts Options) *Router {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &Router{
		backends:      make(map[string]Backend),
		defaultPrefix: opts.DefaultPrefix,
		callTimeout:   opts.CallTimeout,
		logger:        opts.Logger,
	}
}

// Register adds an adapter under its prefix. Registering a prefix twice
// is an error: prefixes are the routing key and must stay unambiguous.
func (r *Router) Register(b Backend) error {
	prefix := b.Prefix()
	if prefix == "" {
		return fmt.Errorf("backend prefix must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[prefix]; exists {
		return fmt.Errorf("backend prefix %q already registered", prefix)
	}
	r.backends[prefix] = b
	return nil
}

// Resolve parses a qualified id and returns the owning adapter plus the
// local identifier. MalformedID when the id has no usable prefix,
// UnknownBackend when the prefix has no adapter.
func (r *Router) Resolve(id string) (Backend, string, error) {
	prefix, local, err := ParseID(id)
	if err != nil {
		return nil, "", err
	}

	r.mu.RLock()
	b, ok := r.backends[prefix]
	r.mu.RUnlock()
	if !ok {
		return nil, "", taskerr.New(taskerr.UnknownBackend, "no backend registered for prefix %q", prefix)
	}
	return b, local, nil
}

// BackendFor returns the prefix that would serve id. Pure parsing: the
// task does not have to exist and the prefix does not have to be
// registered.
func (r *Router) BackendFor(id string) (string, error) {
	prefix, _, err := ParseID(id)
	return prefix, err
}

// Routable reports whether id parses and its prefix has a registered
// adapter. It does not check that the task exists.
func (r *Router) Routable(id string) error {
	_, _, err := r.Resolve(id)
	return err
}

// Lookup returns the adapter registered for a prefix.
func (r *Router) Lookup(prefix string) (Backend, error) {
	r.mu.RLock()
	b, ok := r.backends[prefix]
	r.mu.RUnlock()
	if !ok {
		return nil, taskerr.New(taskerr.UnknownBackend, "no backend registered for prefix %q", prefix)
	}
	return b, nil
}

// Prefixes returns the registered prefixes, sorted.
func (r *Router) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.backends))
	for p := range r.backends {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ─── Single-task operations ──────────────────────────────────────────────────

// Get fetches one task by qualified id.
func (r *Router) Get(ctx context.Context, id string) (task.Task, error) {
	b, local, err := r.Resolve(id)
	if err != nil {
		return task.Task{}, err
	}
	return b.GetTask(ctx, local)
}

// SetStatus updates one task's status by qualified id.
func (r *Router) SetStatus(ctx context.Context, id string, s task.Status) error {
	if err := task.ValidateStatus(s); err != nil {
		return err
	}
	b, local, err := r.Resolve(id)
	if err != nil {
		return err
	}
	return b.SetTaskStatus(ctx, local, s)
}

// Delete removes one task by qualified id, reporting whether it existed.
func (r *Router) Delete(ctx context.Context, id string) (bool, error) {
	b, local, err := r.Resolve(id)
	if err != nil {
		return false, err
	}
	return b.DeleteTask(ctx, local)
}

// Create makes a task in the backend named by prefix, or in the default
// backend when prefix is empty. The backend assigns the local id.
func (r *Router) Create(ctx context.Context, prefix string, d task.Draft) (task.Task, error) {
	if err := d.Normalize(); err != nil {
		return task.Task{}, err
	}

	if prefix == "" {
		prefix = r.defaultPrefix
	}
	if prefix == "" {
		return task.Task{}, taskerr.New(taskerr.UnknownBackend, "no backend selected and no default configured")
	}

	r.mu.RLock()
	b, ok := r.backends[prefix]
	r.mu.RUnlock()
	if !ok {
		return task.Task{}, taskerr.New(taskerr.UnknownBackend, "no backend registered for prefix %q", prefix)
	}
	return b.CreateTask(ctx, d)
}

// CreateFromTitleAndSpec is the two-argument creation shorthand used by
// callers that only have a title and a body.
func (r *Router) CreateFromTitleAndSpec(ctx context.Context, prefix, title, spec string) (task.Task, error) {
	return r.Create(ctx, prefix, task.Draft{Title: title, Spec: spec})
}

// ─── Aggregate operations ────────────────────────────────────────────────────

// Warning records one backend that failed to contribute to an aggregate
// call and was skipped.
type Warning struct {
	Prefix  string `json:"prefix"`
	Message string `json:"message"`
}

// ListResult is the outcome of an aggregate list: the union of results
// from the backends that answered, plus a warning per backend that
// failed. Tasks are sorted by qualified id.
type ListResult struct {
	Tasks    []task.Task `json:"tasks"`
	Warnings []Warning   `json:"warnings,omitempty"`
}

// backendSlot holds one backend's contribution to a fan-out.
type backendSlot struct {
	prefix string
	tasks  []task.Task
	err    error
}

// List queries every registered backend concurrently and concatenates
// results. A failing backend degrades to a warning rather than aborting
// the call: list availability beats completeness. The call errors only
// when every registered backend failed.
func (r *Router) List(ctx context.Context, f task.Filter) (ListResult, error) {
	r.mu.RLock()
	prefixes := make([]string, 0, len(r.backends))
	for p := range r.backends {
		prefixes = append(prefixes, p)
	}
	backends := make(map[string]Backend, len(r.backends))
	for p, b := range r.backends {
		backends[p] = b
	}
	r.mu.RUnlock()
	sort.Strings(prefixes)

	if len(prefixes) == 0 {
		return ListResult{}, nil
	}

	slots := make([]backendSlot, len(prefixes))
	var wg sync.WaitGroup

	for i, prefix := range prefixes {
		wg.Add(1)
		go func(idx int, prefix string, b Backend) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
			defer cancel()

			tasks, err := b.ListTasks(callCtx, f)
			slots[idx] = backendSlot{prefix: prefix, tasks: tasks, err: err}

			if err != nil {
				r.logger.Warn("backend skipped in aggregate list", map[string]any{
					"prefix": prefix,
					"error":  err.Error(),
				})
			}
		}(i, prefix, backends[prefix])
	}
	wg.Wait()

	var out ListResult
	failed := 0
	for _, slot := range slots {
		if slot.err != nil {
			failed++
			out.Warnings = append(out.Warnings, Warning{Prefix: slot.prefix, Message: slot.err.Error()})
			continue
		}
		out.Tasks = append(out.Tasks, slot.tasks...)
	}

	if failed == len(slots) {
		return ListResult{}, taskerr.New(taskerr.BackendUnavailable, "all %d backends failed to list tasks", failed)
	}

	// Collection order is nondeterministic; the contract is not.
	sort.Slice(out.Tasks, func(i, j int) bool { return out.Tasks[i].ID < out.Tasks[j].ID })
	return out, nil
}
