package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/HendryAvila/taskroute/internal/task"
	"github.com/HendryAvila/taskroute/internal/taskerr"
)

// mockBackend is a test double for the Backend interface.
type mockBackend struct {
	prefix string

	// For tracking calls
	mu          sync.Mutex
	listCalls   int
	getCalls    int
	createCalls int
	statusCalls int
	deleteCalls int

	// Configurable behavior
	tasks  []task.Task
	err    error
	delay  time.Duration
	nextID int
}

func newMockBackend(prefix string) *mockBackend {
	return &mockBackend{prefix: prefix, nextID: 1}
}

func (m *mockBackend) Prefix() string { return m.prefix }

func (m *mockBackend) wait(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *mockBackend) ListTasks(ctx context.Context, f task.Filter) ([]task.Task, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()

	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}

	var out []task.Task
	for _, t := range m.tasks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockBackend) GetTask(ctx context.Context, local string) (task.Task, error) {
	m.mu.Lock()
	m.getCalls++
	m.mu.Unlock()

	if err := m.wait(ctx); err != nil {
		return task.Task{}, err
	}
	if m.err != nil {
		return task.Task{}, m.err
	}

	id := QualifyID(m.prefix, local)
	for _, t := range m.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return task.Task{}, taskerr.New(taskerr.NotFound, "task %q not found", id)
}

func (m *mockBackend) CreateTask(ctx context.Context, d task.Draft) (task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.err != nil {
		return task.Task{}, m.err
	}

	t := task.Task{
		ID:       QualifyID(m.prefix, fmt.Sprintf("%d", m.nextID)),
		Title:    d.Title,
		Status:   d.Status,
		Priority: d.Priority,
		Spec:     d.Spec,
	}
	m.nextID++
	m.tasks = append(m.tasks, t)
	return t, nil
}

func (m *mockBackend) SetTaskStatus(ctx context.Context, local string, s task.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++

	if m.err != nil {
		return m.err
	}

	id := QualifyID(m.prefix, local)
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks[i].Status = s
			return nil
		}
	}
	return taskerr.New(taskerr.NotFound, "task %q not found", id)
}

func (m *mockBackend) DeleteTask(ctx context.Context, local string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++

	if m.err != nil {
		return false, m.err
	}

	id := QualifyID(m.prefix, local)
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ─── ParseID ─────────────────────────────────────────────────────────────────

func TestParseID(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		wantPrefix string
		wantLocal  string
		wantCode   taskerr.Code
	}{
		{"numeric local", "md#123", "md", "123", ""},
		{"slug local", "gh#fix-login", "gh", "fix-login", ""},
		{"hash inside local", "gh#issue#5", "gh", "issue#5", ""},
		{"empty local", "db#", "db", "", ""},
		{"no separator", "md123", "", "", taskerr.MalformedID},
		{"empty string", "", "", "", taskerr.MalformedID},
		{"empty prefix", "#5", "", "", taskerr.MalformedID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, local, err := ParseID(tt.id)
			if tt.wantCode != "" {
				if !taskerr.IsCode(err, tt.wantCode) {
					t.Fatalf("ParseID(%q) error = %v, want code %s", tt.id, err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID(%q) error = %v", tt.id, err)
			}
			if prefix != tt.wantPrefix || local != tt.wantLocal {
				t.Errorf("ParseID(%q) = (%q, %q), want (%q, %q)", tt.id, prefix, local, tt.wantPrefix, tt.wantLocal)
			}
		})
	}
}

// ─── Registration and resolution ─────────────────────────────────────────────

func TestRegister_DuplicatePrefix(t *testing.T) {
	r := NewRouter(Options{})

	if err := r.Register(newMockBackend("md")); err != nil {
		t.Fatalf("first Register error: %v", err)
	}
	if err := r.Register(newMockBackend("md")); err == nil {
		t.Error("duplicate prefix must be rejected")
	}
}

func TestResolve(t *testing.T) {
	r := NewRouter(Options{})
	md := newMockBackend("md")
	if err := r.Register(md); err != nil {
		t.Fatal(err)
	}

	b, local, err := r.Resolve("md#42")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if b != Backend(md) || local != "42" {
		t.Errorf("Resolve = (%v, %q), want (md backend, 42)", b, local)
	}

	if _, _, err := r.Resolve("zz#1"); !taskerr.IsCode(err, taskerr.UnknownBackend) {
		t.Errorf("unregistered prefix: got %v, want UnknownBackend", err)
	}
	if _, _, err := r.Resolve("nohash"); !taskerr.IsCode(err, taskerr.MalformedID) {
		t.Errorf("missing separator: got %v, want MalformedID", err)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	r := NewRouter(Options{})
	md := newMockBackend("md")
	gh := newMockBackend("gh")
	for _, b := range []*mockBackend{md, gh} {
		if err := r.Register(b); err != nil {
			t.Fatal(err)
		}
	}

	// Same id resolves to the same adapter regardless of call order.
	for i := 0; i < 10; i++ {
		b, _, err := r.Resolve("gh#5")
		if err != nil {
			t.Fatal(err)
		}
		if b != Backend(gh) {
			t.Fatalf("iteration %d resolved to wrong backend", i)
		}
		if _, _, err := r.Resolve("md#1"); err != nil {
			t.Fatal(err)
		}
	}
}

func TestResolve_CaseSensitivePrefix(t *testing.T) {
	r := NewRouter(Options{})
	if err := r.Register(newMockBackend("md")); err != nil {
		t.Fatal(err)
	}

	if _, _, err := r.Resolve("MD#1"); !taskerr.IsCode(err, taskerr.UnknownBackend) {
		t.Errorf("prefix matching must be case-sensitive, got %v", err)
	}
}

func TestBackendFor(t *testing.T) {
	r := NewRouter(Options{})

	// Pure parsing: works without registration or task existence.
	prefix, err := r.BackendFor("zz#does-not-exist")
	if err != nil {
		t.Fatalf("BackendFor error: %v", err)
	}
	if prefix != "zz" {
		t.Errorf("BackendFor = %q, want zz", prefix)
	}

	if _, err := r.BackendFor("plain"); !taskerr.IsCode(err, taskerr.MalformedID) {
		t.Errorf("malformed id: got %v", err)
	}
}

func TestPrefixes(t *testing.T) {
	r := NewRouter(Options{})
	for _, p := range []string{"md", "db", "gh"} {
		if err := r.Register(newMockBackend(p)); err != nil {
			t.Fatal(err)
		}
	}

	got := r.Prefixes()
	want := []string{"db", "gh", "md"}
	if len(got) != len(want) {
		t.Fatalf("Prefixes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Prefixes[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// ─── Delegation ──────────────────────────────────────────────────────────────

func TestGet_Delegates(t *testing.T) {
	r := NewRouter(Options{})
	md := newMockBackend("md")
	md.tasks = []task.Task{{ID: "md#7", Title: "Seven", Status: task.StatusTodo}}
	if err := r.Register(md); err != nil {
		t.Fatal(err)
	}

	got, err := r.Get(context.Background(), "md#7")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Title != "Seven" {
		t.Errorf("Get returned %+v", got)
	}
	if md.getCalls != 1 {
		t.Errorf("getCalls = %d, want 1", md.getCalls)
	}
}

func TestGet_NotFoundPropagates(t *testing.T) {
	r := NewRouter(Options{})
	if err := r.Register(newMockBackend("md")); err != nil {
		t.Fatal(err)
	}

	_, err := r.Get(context.Background(), "md#404")
	if !taskerr.IsCode(err, taskerr.NotFound) {
		t.Errorf("want NotFound, got %v", err)
	}
}

func TestSetStatus_ValidatesFirst(t *testing.T) {
	r := NewRouter(Options{})
	md := newMockBackend("md")
	if err := r.Register(md); err != nil {
		t.Fatal(err)
	}

	if err := r.SetStatus(context.Background(), "md#1", task.Status("nope")); err == nil {
		t.Error("invalid status must be rejected")
	}
	if md.statusCalls != 0 {
		t.Error("backend must not be called for an invalid status")
	}
}

func TestDelete_Delegates(t *testing.T) {
	r := NewRouter(Options{})
	md := newMockBackend("md")
	md.tasks = []task.Task{{ID: "md#1", Status: task.StatusTodo}}
	if err := r.Register(md); err != nil {
		t.Fatal(err)
	}

	existed, err := r.Delete(context.Background(), "md#1")
	if err != nil || !existed {
		t.Fatalf("Delete = (%v, %v), want (true, nil)", existed, err)
	}
	existed, err = r.Delete(context.Background(), "md#1")
	if err != nil || existed {
		t.Fatalf("second Delete = (%v, %v), want (false, nil)", existed, err)
	}
}

func TestCreate_DefaultBackend(t *testing.T) {
	r := NewRouter(Options{DefaultPrefix: "md"})
	md := newMockBackend("md")
	gh := newMockBackend("gh")
	for _, b := range []*mockBackend{md, gh} {
		if err := r.Register(b); err != nil {
			t.Fatal(err)
		}
	}

	created, err := r.Create(context.Background(), "", task.Draft{Title: "route me"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.ID != "md#1" {
		t.Errorf("default-backend create produced %q, want md#1", created.ID)
	}
	if created.Status != task.StatusTodo {
		t.Errorf("draft status should default to TODO, got %q", created.Status)
	}
	if gh.createCalls != 0 {
		t.Error("non-default backend must not be called")
	}
}

func TestCreate_ExplicitAndUnknownPrefix(t *testing.T) {
	r := NewRouter(Options{})
	gh := newMockBackend("gh")
	if err := r.Register(gh); err != nil {
		t.Fatal(err)
	}

	created, err := r.Create(context.Background(), "gh", task.Draft{Title: "x"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.ID != "gh#1" {
		t.Errorf("created.ID = %q", created.ID)
	}

	if _, err := r.Create(context.Background(), "zz", task.Draft{Title: "x"}); !taskerr.IsCode(err, taskerr.UnknownBackend) {
		t.Errorf("unknown prefix: got %v", err)
	}
	if _, err := r.Create(context.Background(), "", task.Draft{Title: "x"}); !taskerr.IsCode(err, taskerr.UnknownBackend) {
		t.Errorf("no default configured: got %v", err)
	}
}

func TestCreateFromTitleAndSpec(t *testing.T) {
	r := NewRouter(Options{DefaultPrefix: "md"})
	md := newMockBackend("md")
	if err := r.Register(md); err != nil {
		t.Fatal(err)
	}

	created, err := r.CreateFromTitleAndSpec(context.Background(), "", "Title here", "Body here")
	if err != nil {
		t.Fatalf("CreateFromTitleAndSpec error: %v", err)
	}
	if created.Title != "Title here" || created.Spec != "Body here" {
		t.Errorf("created = %+v", created)
	}
}

// ─── Aggregate list ──────────────────────────────────────────────────────────

func TestList_UnionAcrossBackends(t *testing.T) {
	r := NewRouter(Options{})
	md := newMockBackend("md")
	md.tasks = []task.Task{
		{ID: "md#2", Status: task.StatusTodo},
		{ID: "md#1", Status: task.StatusDone},
	}
	gh := newMockBackend("gh")
	gh.tasks = []task.Task{{ID: "gh#5", Status: task.StatusTodo}}
	for _, b := range []*mockBackend{md, gh} {
		if err := r.Register(b); err != nil {
			t.Fatal(err)
		}
	}

	res, err := r.List(context.Background(), task.Filter{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}

	want := []string{"gh#5", "md#1", "md#2"}
	if len(res.Tasks) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(res.Tasks), len(want))
	}
	for i, id := range want {
		if res.Tasks[i].ID != id {
			t.Errorf("Tasks[%d].ID = %q, want %q (deterministic order)", i, res.Tasks[i].ID, id)
		}
	}
}

func TestList_FilterApplied(t *testing.T) {
	r := NewRouter(Options{})
	md := newMockBackend("md")
	md.tasks = []task.Task{
		{ID: "md#1", Status: task.StatusDone},
		{ID: "md#2", Status: task.StatusTodo},
	}
	if err := r.Register(md); err != nil {
		t.Fatal(err)
	}

	res, err := r.List(context.Background(), task.Filter{Status: task.StatusDone})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].ID != "md#1" {
		t.Errorf("filtered list = %+v", res.Tasks)
	}
}

func TestList_SkipsFailingBackend(t *testing.T) {
	r := NewRouter(Options{})
	md := newMockBackend("md")
	md.tasks = []task.Task{{ID: "md#1", Status: task.StatusTodo}}
	gh := newMockBackend("gh")
	gh.err = errors.New("api down")
	db := newMockBackend("db")
	db.tasks = []task.Task{{ID: "db#9", Status: task.StatusTodo}}
	for _, b := range []*mockBackend{md, gh, db} {
		if err := r.Register(b); err != nil {
			t.Fatal(err)
		}
	}

	res, err := r.List(context.Background(), task.Filter{})
	if err != nil {
		t.Fatalf("List must not abort on one failing backend: %v", err)
	}

	if len(res.Tasks) != 2 {
		t.Errorf("want union of the two healthy backends, got %+v", res.Tasks)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Prefix != "gh" {
		t.Errorf("want a gh warning, got %v", res.Warnings)
	}
}

func TestList_AllBackendsFailed(t *testing.T) {
	r := NewRouter(Options{})
	for _, p := range []string{"md", "gh"} {
		b := newMockBackend(p)
		b.err = errors.New("down")
		if err := r.Register(b); err != nil {
			t.Fatal(err)
		}
	}

	_, err := r.List(context.Background(), task.Filter{})
	if !taskerr.IsCode(err, taskerr.BackendUnavailable) {
		t.Errorf("all-failed list should error with BackendUnavailable, got %v", err)
	}
}

func TestList_SlowBackendTimesOut(t *testing.T) {
	r := NewRouter(Options{CallTimeout: 50 * time.Millisecond})
	fast := newMockBackend("md")
	fast.tasks = []task.Task{{ID: "md#1", Status: task.StatusTodo}}
	slow := newMockBackend("gh")
	slow.delay = 2 * time.Second
	for _, b := range []*mockBackend{fast, slow} {
		if err := r.Register(b); err != nil {
			t.Fatal(err)
		}
	}

	start := time.Now()
	res, err := r.List(context.Background(), task.Filter{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("slow backend stalled the fan-out: %v", elapsed)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].ID != "md#1" {
		t.Errorf("fast backend results missing: %+v", res.Tasks)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Prefix != "gh" {
		t.Errorf("timed-out backend should surface as warning: %v", res.Warnings)
	}
}

func TestList_NoBackends(t *testing.T) {
	r := NewRouter(Options{})
	res, err := r.List(context.Background(), task.Filter{})
	if err != nil {
		t.Fatalf("empty registry list error: %v", err)
	}
	if len(res.Tasks) != 0 || len(res.Warnings) != 0 {
		t.Errorf("empty registry should produce empty result, got %+v", res)
	}
}
