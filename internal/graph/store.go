// Package graph persists the "depends-on" relation between qualified task
// identifiers as a directed graph.
//
// Edges are keyed by the ordered pair (from, to) and are backend-agnostic:
// endpoints are free-text qualified ids and are NOT checked for existence,
// so an edge may reference a task in another backend or one that has not
// been created yet. Writes are idempotent; the unique index, not an
// application lock, is what keeps concurrent identical writes convergent.
package graph

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/taskroute/internal/taskerr"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// Edge is one persisted dependency: FromTaskID depends on ToTaskID.
type Edge struct {
	ID         string `json:"id"`
	FromTaskID string `json:"from_task_id"`
	ToTaskID   string `json:"to_task_id"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// Store is the sqlite-backed edge store.
type Store struct {
	db *sql.DB
}

// ─── Lifecycle ───────────────────────────────────────────────────────────────

// Open opens (creating if needed) the edge database at path and runs
// migrations. The parent directory is created when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("graph: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("graph: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("graph: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("graph: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS edges (
			id         TEXT PRIMARY KEY,
			from_task  TEXT NOT NULL,
			to_task    TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			CHECK (from_task <> to_task)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_edges_pair ON edges(from_task, to_task);
		CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_task);
		CREATE INDEX IF NOT EXISTS idx_edges_to   ON edges(to_task);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// AddDependency records that from depends on to. Re-adding an existing
// edge is a no-op reported through the created flag, never an error.
// Identical endpoints are rejected with SelfDependency before any write.
func (s *Store) AddDependency(ctx context.Context, from, to string) (created bool, err error) {
	if from == to {
		return false, taskerr.New(taskerr.SelfDependency, "task %q cannot depend on itself", from)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO edges (id, from_task, to_task) VALUES (?, ?, ?)`,
		uuid.NewString(), from, to,
	)
	if err != nil {
		return false, taskerr.Wrap(taskerr.BackendUnavailable, err, "adding dependency %s -> %s", from, to)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, taskerr.Wrap(taskerr.BackendUnavailable, err, "adding dependency %s -> %s", from, to)
	}
	return n > 0, nil
}

// RemoveDependency deletes the edge from -> to if present. Absence is
// reported through the removed flag, never as an error.
func (s *Store) RemoveDependency(ctx context.Context, from, to string) (removed bool, err error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM edges WHERE from_task = ? AND to_task = ?`,
		from, to,
	)
	if err != nil {
		return false, taskerr.Wrap(taskerr.BackendUnavailable, err, "removing dependency %s -> %s", from, to)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, taskerr.Wrap(taskerr.BackendUnavailable, err, "removing dependency %s -> %s", from, to)
	}
	return n > 0, nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// ListDependencies returns the tasks that taskID depends on (outgoing
// edges), sorted by id.
func (s *Store) ListDependencies(ctx context.Context, taskID string) ([]string, error) {
	return s.listEndpoints(ctx,
		`SELECT to_task FROM edges WHERE from_task = ? ORDER BY to_task`, taskID)
}

// ListDependents returns the tasks that depend on taskID (incoming
// edges), sorted by id.
func (s *Store) ListDependents(ctx context.Context, taskID string) ([]string, error) {
	return s.listEndpoints(ctx,
		`SELECT from_task FROM edges WHERE to_task = ? ORDER BY from_task`, taskID)
}

func (s *Store) listEndpoints(ctx context.Context, query, taskID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, taskerr.Wrap(taskerr.BackendUnavailable, err, "querying edges for %s", taskID)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, taskerr.Wrap(taskerr.BackendUnavailable, err, "scanning edge for %s", taskID)
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

// Edges returns every recorded edge, sorted by (from, to).
func (s *Store) Edges(ctx context.Context) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_task, to_task, created_at, updated_at
		 FROM edges
		 ORDER BY from_task, to_task`,
	)
	if err != nil {
		return nil, taskerr.Wrap(taskerr.BackendUnavailable, err, "querying all edges")
	}
	defer rows.Close()

	var result []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.ID, &e.FromTaskID, &e.ToTaskID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, taskerr.Wrap(taskerr.BackendUnavailable, err, "scanning edge")
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// Adjacency returns the full graph as a from -> sorted []to map.
func (s *Store) Adjacency(ctx context.Context) (map[string][]string, error) {
	edges, err := s.Edges(ctx)
	if err != nil {
		return nil, err
	}

	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.FromTaskID] = append(adj[e.FromTaskID], e.ToTaskID)
	}
	for from := range adj {
		sort.Strings(adj[from])
	}
	return adj, nil
}

// DetectCycles scans the whole graph and returns every dependency cycle
// found. An empty result means the graph is acyclic.
func (s *Store) DetectCycles(ctx context.Context) ([][]string, error) {
	adj, err := s.Adjacency(ctx)
	if err != nil {
		return nil, err
	}
	return FindCycles(adj), nil
}
