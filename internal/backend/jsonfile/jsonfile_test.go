package jsonfile_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/HendryAvila/taskroute/internal/backend/jsonfile"
	"github.com/HendryAvila/taskroute/internal/task"
	"github.com/HendryAvila/taskroute/internal/taskerr"
)

func newTestStore(t *testing.T) (*jsonfile.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.json")
	return jsonfile.New(path), path
}

func mustCreate(t *testing.T, s *jsonfile.Store, title string, status task.Status) task.Task {
	t.Helper()
	created, err := s.CreateTask(context.Background(), task.Draft{Title: title, Status: status})
	if err != nil {
		t.Fatalf("CreateTask(%q): %v", title, err)
	}
	return created
}

// --- Create ---

func TestCreateTask_MonotonicIDs(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first := mustCreate(t, s, "one", task.StatusTodo)
	second := mustCreate(t, s, "two", task.StatusTodo)
	if first.ID != "json#1" || second.ID != "json#2" {
		t.Errorf("IDs = %s, %s; want json#1, json#2", first.ID, second.ID)
	}

	// Deleting the newest task must not free its id.
	if _, err := s.DeleteTask(ctx, "2"); err != nil {
		t.Fatal(err)
	}
	third := mustCreate(t, s, "three", task.StatusTodo)
	if third.ID != "json#3" {
		t.Errorf("ID after delete = %s, want json#3", third.ID)
	}
}

func TestCreateTask_DocumentLayout(t *testing.T) {
	s, path := newTestStore(t)

	mustCreate(t, s, "Check layout", task.StatusTodo)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Version int `json:"version"`
		NextID  int `json:"next_id"`
		Tasks   []struct {
			ID     int    `json:"id"`
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("tasks file is not valid JSON: %v", err)
	}

	if doc.Version != 1 {
		t.Errorf("version = %d, want 1", doc.Version)
	}
	if doc.NextID != 2 {
		t.Errorf("next_id = %d, want 2", doc.NextID)
	}
	if len(doc.Tasks) != 1 || doc.Tasks[0].ID != 1 || doc.Tasks[0].Status != "TODO" {
		t.Errorf("tasks = %+v", doc.Tasks)
	}
}

// --- Get / status / delete ---

func TestGetTask(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "Lookup me", task.StatusInReview)

	got, err := s.GetTask(ctx, "1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.ID != "json#1" || got.Status != task.StatusInReview {
		t.Errorf("GetTask = %+v", got)
	}

	_, err = s.GetTask(ctx, "7")
	if !taskerr.IsCode(err, taskerr.NotFound) {
		t.Errorf("missing task: got %v, want NotFound", err)
	}

	// A qualified id carrying this adapter's own prefix also resolves.
	got, err = s.GetTask(ctx, "json#1")
	if err != nil || got.ID != "json#1" {
		t.Errorf("GetTask(qualified) = %+v, %v", got, err)
	}
}

func TestSetTaskStatus(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created := mustCreate(t, s, "Flip me", task.StatusTodo)

	if err := s.SetTaskStatus(ctx, "1", task.StatusBlocked); err != nil {
		t.Fatalf("SetTaskStatus: %v", err)
	}
	got, err := s.GetTask(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != task.StatusBlocked {
		t.Errorf("Status = %s, want BLOCKED", got.Status)
	}
	if got.CreatedAt != created.CreatedAt {
		t.Error("CreatedAt must not change on status update")
	}

	err = s.SetTaskStatus(ctx, "9", task.StatusDone)
	if !taskerr.IsCode(err, taskerr.NotFound) {
		t.Errorf("missing task: got %v, want NotFound", err)
	}
}

func TestDeleteTask(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "a", task.StatusTodo)
	mustCreate(t, s, "b", task.StatusTodo)

	removed, err := s.DeleteTask(ctx, "1")
	if err != nil || !removed {
		t.Fatalf("DeleteTask = %v, %v; want true, nil", removed, err)
	}

	removed, err = s.DeleteTask(ctx, "1")
	if err != nil || removed {
		t.Fatalf("repeat DeleteTask = %v, %v; want false, nil", removed, err)
	}

	// The survivor is untouched.
	if _, err := s.GetTask(ctx, "2"); err != nil {
		t.Errorf("GetTask(2) after deleting 1: %v", err)
	}
}

// --- Durability ---

func TestReopenSeesPersistedState(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "persisted", task.StatusTodo)

	reopened := jsonfile.New(path)
	got, err := reopened.GetTask(ctx, "1")
	if err != nil {
		t.Fatalf("GetTask on reopened store: %v", err)
	}
	if got.Title != "persisted" {
		t.Errorf("Title = %s", got.Title)
	}

	next := mustCreate(t, reopened, "second", task.StatusTodo)
	if next.ID != "json#2" {
		t.Errorf("id counter lost across reopen: %s", next.ID)
	}
}

func TestLoad_HandEditedIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	body := `{"version": 1, "next_id": 1, "tasks": [{"id": 40, "title": "imported", "status": "TODO"}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	s := jsonfile.New(path)
	created := mustCreate(t, s, "fresh", task.StatusTodo)
	if created.ID != "json#41" {
		t.Errorf("ID = %s, want json#41 (above the imported id)", created.ID)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := jsonfile.New(path)
	_, err := s.ListTasks(context.Background(), task.Filter{})
	if !taskerr.IsCode(err, taskerr.BackendUnavailable) {
		t.Errorf("corrupt file: got %v, want BackendUnavailable", err)
	}
}

func TestListTasks_MissingFileIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	all, err := s.ListTasks(context.Background(), task.Filter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("count = %d, want 0", len(all))
	}
}
