// Package sqlite stores tasks in a local SQLite database. It is the
// durable single-machine backend: ids come from an AUTOINCREMENT column
// and are never reused, and status updates are single-row writes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/HendryAvila/taskroute/internal/backend"
	"github.com/HendryAvila/taskroute/internal/task"
	"github.com/HendryAvila/taskroute/internal/taskerr"
)

// Prefix is the namespace this adapter serves.
const Prefix = "db"

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Store is the sqlite-backed task store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the task database at path and runs
// migrations. The parent directory is created when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite backend: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite backend: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("sqlite backend: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("sqlite backend: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tasks (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT    NOT NULL,
			status     TEXT    NOT NULL DEFAULT 'TODO',
			priority   INTEGER NOT NULL DEFAULT 0,
			spec       TEXT    NOT NULL DEFAULT '',
			created_at TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Prefix implements backend.Backend.
func (s *Store) Prefix() string { return Prefix }

const taskColumns = "id, title, status, priority, spec, created_at, updated_at"

// ListTasks implements backend.Backend.
func (s *Store) ListTasks(ctx context.Context, f task.Filter) ([]task.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks"
	var args []any
	if f.Status != "" {
		query += " WHERE status = ?"
		args = append(args, string(f.Status))
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, taskerr.Wrap(taskerr.BackendUnavailable, err, "querying tasks")
	}
	defer func() { _ = rows.Close() }()

	var out []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, taskerr.Wrap(taskerr.BackendUnavailable, err, "scanning task row")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, taskerr.Wrap(taskerr.BackendUnavailable, err, "iterating task rows")
	}
	return out, nil
}

// GetTask implements backend.Backend.
func (s *Store) GetTask(ctx context.Context, local string) (task.Task, error) {
	id, err := parseLocal(local)
	if err != nil {
		return task.Task{}, err
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, notFound(local)
	}
	if err != nil {
		return task.Task{}, taskerr.Wrap(taskerr.BackendUnavailable, err, "querying task")
	}
	return t, nil
}

// CreateTask implements backend.Backend.
func (s *Store) CreateTask(ctx context.Context, d task.Draft) (task.Task, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (title, status, priority, spec) VALUES (?, ?, ?, ?)",
		d.Title, string(d.Status), d.Priority, d.Spec,
	)
	if err != nil {
		return task.Task{}, taskerr.Wrap(taskerr.BackendUnavailable, err, "inserting task")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return task.Task{}, taskerr.Wrap(taskerr.BackendUnavailable, err, "reading new task id")
	}
	return s.GetTask(ctx, strconv.FormatInt(id, 10))
}

// SetTaskStatus implements backend.Backend.
func (s *Store) SetTaskStatus(ctx context.Context, local string, st task.Status) error {
	id, err := parseLocal(local)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = datetime('now') WHERE id = ?",
		string(st), id,
	)
	if err != nil {
		return taskerr.Wrap(taskerr.BackendUnavailable, err, "updating task status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return taskerr.Wrap(taskerr.BackendUnavailable, err, "checking update result")
	}
	if n == 0 {
		return notFound(local)
	}
	return nil
}

// DeleteTask implements backend.Backend.
func (s *Store) DeleteTask(ctx context.Context, local string) (bool, error) {
	id, err := parseLocal(local)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return false, taskerr.Wrap(taskerr.BackendUnavailable, err, "deleting task")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, taskerr.Wrap(taskerr.BackendUnavailable, err, "checking delete result")
	}
	return n > 0, nil
}

// parseLocal converts a local id to its row id, accepting a qualified id
// carrying this adapter's own prefix. Non-numeric input can never match
// a row, so it reads as NotFound rather than a parse error.
func parseLocal(local string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(backend.StripPrefix(local, Prefix)), 10, 64)
	if err != nil {
		return 0, notFound(local)
	}
	return id, nil
}

func notFound(local string) error {
	return taskerr.New(taskerr.NotFound, "task %q not found", backend.QualifyID(Prefix, local))
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (task.Task, error) {
	var (
		id     int64
		status string
		t      task.Task
	)
	if err := row.Scan(&id, &t.Title, &status, &t.Priority, &t.Spec, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return task.Task{}, err
	}
	t.ID = backend.QualifyID(Prefix, strconv.FormatInt(id, 10))
	t.Status = task.Status(status)
	return t, nil
}
