// Package jsonfile stores all tasks in a single JSON document with a
// monotonic id counter. Suited to small trackers that want one file to
// diff and back up.
package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/HendryAvila/taskroute/internal/backend"
	"github.com/HendryAvila/taskroute/internal/task"
	"github.com/HendryAvila/taskroute/internal/taskerr"
)

// Prefix is the namespace this adapter serves.
const Prefix = "json"

const fileVersion = 1

// Store is a single-file task backend. Every operation reads the
// document fresh and writes it back atomically, so concurrent processes
// see consistent snapshots.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a store backed by the JSON document at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Prefix implements backend.Backend.
func (s *Store) Prefix() string { return Prefix }

// document is the on-disk layout. NextID never decreases, so deleted ids
// are not reused.
type document struct {
	Version int      `json:"version"`
	NextID  int      `json:"next_id"`
	Tasks   []record `json:"tasks"`
}

// record is one task inside the document, keyed by its local id.
type record struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Priority  int    `json:"priority,omitempty"`
	Spec      string `json:"spec,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (r record) task() task.Task {
	return task.Task{
		ID:        backend.QualifyID(Prefix, strconv.Itoa(r.ID)),
		Title:     r.Title,
		Status:    task.Status(r.Status),
		Priority:  r.Priority,
		Spec:      r.Spec,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ListTasks implements backend.Backend.
func (s *Store) ListTasks(ctx context.Context, f task.Filter) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	var out []task.Task
	for _, r := range doc.Tasks {
		t := r.task()
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetTask implements backend.Backend.
func (s *Store) GetTask(ctx context.Context, local string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return task.Task{}, err
	}
	if i := doc.index(local); i >= 0 {
		return doc.Tasks[i].task(), nil
	}
	return task.Task{}, taskerr.New(taskerr.NotFound, "task %q not found", backend.QualifyID(Prefix, local))
}

// CreateTask implements backend.Backend.
func (s *Store) CreateTask(ctx context.Context, d task.Draft) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return task.Task{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	r := record{
		ID:        doc.NextID,
		Title:     d.Title,
		Status:    string(d.Status),
		Priority:  d.Priority,
		Spec:      d.Spec,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.NextID++
	doc.Tasks = append(doc.Tasks, r)

	if err := s.save(doc); err != nil {
		return task.Task{}, err
	}
	return r.task(), nil
}

// SetTaskStatus implements backend.Backend.
func (s *Store) SetTaskStatus(ctx context.Context, local string, st task.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	i := doc.index(local)
	if i < 0 {
		return taskerr.New(taskerr.NotFound, "task %q not found", backend.QualifyID(Prefix, local))
	}

	doc.Tasks[i].Status = string(st)
	doc.Tasks[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return s.save(doc)
}

// DeleteTask implements backend.Backend.
func (s *Store) DeleteTask(ctx context.Context, local string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	i := doc.index(local)
	if i < 0 {
		return false, nil
	}

	doc.Tasks = append(doc.Tasks[:i], doc.Tasks[i+1:]...)
	if err := s.save(doc); err != nil {
		return false, err
	}
	return true, nil
}

// index returns the position of the record with the given local id, or -1.
// A fully qualified id carrying this adapter's own prefix also matches.
func (d *document) index(local string) int {
	want := strings.TrimSpace(backend.StripPrefix(local, Prefix))
	for i, r := range d.Tasks {
		if strconv.Itoa(r.ID) == want {
			return i
		}
	}
	return -1
}

// load reads the document. A missing file is an empty tracker.
func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &document{Version: fileVersion, NextID: 1}, nil
		}
		return nil, taskerr.Wrap(taskerr.BackendUnavailable, err, "reading tasks file")
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, taskerr.Wrap(taskerr.BackendUnavailable, err, "parsing tasks file")
	}
	if doc.Version == 0 {
		doc.Version = fileVersion
	}
	if doc.Version != fileVersion {
		return nil, taskerr.New(taskerr.BackendUnavailable, "tasks file version %d not supported, want %d", doc.Version, fileVersion)
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}
	// Never hand out an id already in use, even after manual edits.
	for _, r := range doc.Tasks {
		if r.ID >= doc.NextID {
			doc.NextID = r.ID + 1
		}
	}
	return &doc, nil
}

// save writes the document atomically: temp file in place, then rename.
func (s *Store) save(doc *document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return taskerr.Wrap(taskerr.BackendUnavailable, err, "creating tasks file directory")
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return taskerr.Wrap(taskerr.BackendUnavailable, err, "encoding tasks file")
	}
	data = append(data, '\n')

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return taskerr.Wrap(taskerr.BackendUnavailable, err, "writing tasks file")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return taskerr.Wrap(taskerr.BackendUnavailable, err, "replacing tasks file")
	}
	return nil
}
