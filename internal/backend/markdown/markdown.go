// Package markdown stores tasks as individual markdown files with YAML
// front matter, one file per task, for task lists that live in the repo
// next to the code they describe.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/taskroute/internal/backend"
	"github.com/HendryAvila/taskroute/internal/task"
	"github.com/HendryAvila/taskroute/internal/taskerr"
)

// Prefix is the namespace this adapter serves.
const Prefix = "md"

const frontMatterDelim = "---"

// Store is a markdown-directory task backend. Files are named
// NNN-slug.md; identity lives in the front matter, so renamed files keep
// working.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New returns a store rooted at dir. The directory is created lazily on
// the first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Prefix implements backend.Backend.
func (s *Store) Prefix() string { return Prefix }

// frontMatter is the YAML header of a task file. The markdown body below
// it is the task spec.
type frontMatter struct {
	ID       int    `yaml:"id"`
	Title    string `yaml:"title"`
	Status   string `yaml:"status"`
	Priority int    `yaml:"priority"`
	Created  string `yaml:"created,omitempty"`
	Updated  string `yaml:"updated,omitempty"`
}

// entry pairs a parsed task file with its location on disk.
type entry struct {
	path string
	meta frontMatter
	body string
}

func (e entry) task() task.Task {
	return task.Task{
		ID:        backend.QualifyID(Prefix, strconv.Itoa(e.meta.ID)),
		Title:     e.meta.Title,
		Status:    task.Status(e.meta.Status),
		Priority:  e.meta.Priority,
		Spec:      e.body,
		CreatedAt: e.meta.Created,
		UpdatedAt: e.meta.Updated,
	}
}

// ListTasks implements backend.Backend.
func (s *Store) ListTasks(ctx context.Context, f task.Filter) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.scan()
	if err != nil {
		return nil, err
	}

	var out []task.Task
	for _, e := range entries {
		t := e.task()
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

	e, err := s.find(local)
	if err != nil {
		return task.Task{}, err
	}
	return e.task(), nil
}

// CreateTask implements backend.Backend.
func (s *Store) CreateTask(ctx context.Context, d task.Draft) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return task.Task{}, taskerr.Wrap(taskerr.BackendUnavailable, err, "creating tasks directory")
	}

	entries, err := s.scan()
	if err != nil {
		return task.Task{}, err
	}
	id := 1
	for _, e := range entries {
		if e.meta.ID >= id {
			id = e.meta.ID + 1
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	e := entry{
		path: filepath.Join(s.dir, fmt.Sprintf("%03d-%s.md", id, task.Slugify(d.Title))),
		meta: frontMatter{
			ID:       id,
			Title:    d.Title,
			Status:   string(d.Status),
			Priority: d.Priority,
			Created:  now,
			Updated:  now,
		},
		body: strings.TrimSpace(d.Spec),
	}

	if err := writeEntry(e); err != nil {
		return task.Task{}, err
	}
	return e.task(), nil
}

// SetTaskStatus implements backend.Backend.
func (s *Store) SetTaskStatus(ctx context.Context, local string, st task.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.find(local)
	if err != nil {
		return err
	}

	e.meta.Status = string(st)
	e.meta.Updated = time.Now().UTC().Format(time.RFC3339)
	return writeEntry(e)
}

// DeleteTask implements backend.Backend.
func (s *Store) DeleteTask(ctx context.Context, local string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.find(local)
	if taskerr.IsCode(err, taskerr.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := os.Remove(e.path); err != nil {
		return false, taskerr.Wrap(taskerr.BackendUnavailable, err, "removing task file")
	}
	return true, nil
}

// find returns the entry whose front matter id matches the local id.
// A fully qualified id carrying this adapter's own prefix also matches.
func (s *Store) find(local string) (entry, error) {
	entries, err := s.scan()
	if err != nil {
		return entry{}, err
	}
	want := strings.TrimSpace(backend.StripPrefix(local, Prefix))
	for _, e := range entries {
		if strconv.Itoa(e.meta.ID) == want {
			return e, nil
		}
	}
	return entry{}, taskerr.New(taskerr.NotFound, "task %q not found", backend.QualifyID(Prefix, local))
}

// scan parses every task file in the directory. A missing directory is an
// empty backend, not an error.
func (s *Store) scan() ([]entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, taskerr.Wrap(taskerr.BackendUnavailable, err, "reading tasks directory")
	}

	var out []entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".md") {
			continue
		}
		path := filepath.Join(s.dir, de.Name())
		e, err := readEntry(path)
		if err != nil {
			continue // skip unreadable task files
		}
		out = append(out, e)
	}
	return out, nil
}

// readEntry parses one task file: YAML front matter between --- fences,
// then the spec body.
func readEntry(path string) (entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entry{}, fmt.Errorf("reading task file: %w", err)
	}

	content := string(data)
	if !strings.HasPrefix(content, frontMatterDelim+"\n") {
		return entry{}, fmt.Errorf("task file %s has no front matter", filepath.Base(path))
	}

	rest := content[len(frontMatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelim)
	if end < 0 {
		return entry{}, fmt.Errorf("task file %s has unterminated front matter", filepath.Base(path))
	}

	var meta frontMatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return entry{}, fmt.Errorf("parsing front matter of %s: %w", filepath.Base(path), err)
	}

	body := rest[end+len(frontMatterDelim)+1:]
	return entry{path: path, meta: meta, body: strings.TrimSpace(body)}, nil
}

// writeEntry renders and writes a task file.
func writeEntry(e entry) error {
	head, err := yaml.Marshal(e.meta)
	if err != nil {
		return taskerr.Wrap(taskerr.BackendUnavailable, err, "encoding front matter")
	}

	var b strings.Builder
	b.WriteString(frontMatterDelim + "\n")
	b.Write(head)
	b.WriteString(frontMatterDelim + "\n")
	if e.body != "" {
		b.WriteString("\n" + e.body + "\n")
	}

	if err := os.WriteFile(e.path, []byte(b.String()), 0o644); err != nil {
		return taskerr.Wrap(taskerr.BackendUnavailable, err, "writing task file")
	}
	return nil
}
