// Package backend routes every task operation to the storage system that
// owns the task, based on the namespace prefix of its qualified identifier.
//
// A qualified identifier is prefix#local, split on the FIRST '#'. The
// prefix names a registered adapter (md, json, gh, db); the local part is
// opaque here and validated only by the owning adapter. The Router holds
// the prefix -> adapter registry, dispatches single-task calls, and fans
// aggregate calls out across every adapter.
package backend

import (
	"context"
	"strings"

	"github.com/HendryAvila/taskroute/internal/task"
	"github.com/HendryAvila/taskroute/internal/taskerr"
)

// Backend is the fixed capability set every storage adapter implements.
// Adapters receive local identifiers and return tasks carrying qualified
// identifiers. A missing task is a NotFound error; I/O and network
// failures are BackendUnavailable errors wrapping the cause.
type Backend interface {
	// Prefix is the namespace identity used for registration.
	Prefix() string

	ListTasks(ctx context.Context, f task.Filter) ([]task.Task, error)
	GetTask(ctx context.Context, local string) (task.Task, error)
	CreateTask(ctx context.Context, d task.Draft) (task.Task, error)
	SetTaskStatus(ctx context.Context, local string, s task.Status) error
	DeleteTask(ctx context.Context, local string) (bool, error)
}

// ParseID splits a qualified identifier on its first '#'. An id without a
// separator, or with an empty prefix, is MalformedID. The local part may
// itself contain '#' characters.
func ParseID(id string) (prefix, local string, err error) {
	idx := strings.Index(id, "#")
	if idx < 0 {
		return "", "", taskerr.New(taskerr.MalformedID, "id %q has no prefix separator, want prefix#local", id)
	}
	if idx == 0 {
		return "", "", taskerr.New(taskerr.MalformedID, "id %q has an empty prefix, want prefix#local", id)
	}
	return id[:idx], id[idx+1:], nil
}

// QualifyID joins a prefix and a local identifier into a qualified id.
func QualifyID(prefix, local string) string {
	return prefix + "#" + local
}

// StripPrefix returns the local part when id is qualified with the given
// prefix, and the id unchanged otherwise. Adapters use it to accept both
// local and qualified input.
func StripPrefix(id, prefix string) string {
	return strings.TrimPrefix(id, prefix+"#")
}
