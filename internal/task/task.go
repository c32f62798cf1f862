// Package task defines the unit-of-work model shared by every backend.
//
// A task lives in exactly one backend and is addressed everywhere by a
// qualified identifier of the form prefix#local (md#123, gh#45, db#7).
// The prefix names the owning backend; the local part is whatever that
// backend uses internally. Only the owning backend stores task content.
package task

import (
	"fmt"
	"strings"
)

// --- Status enum ---

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN-PROGRESS"
	StatusInReview   Status = "IN-REVIEW"
	StatusDone       Status = "DONE"
	StatusBlocked    Status = "BLOCKED"
)

// validStatuses is the set of allowed task statuses.
var validStatuses = map[Status]bool{
	StatusTodo:       true,
	StatusInProgress: true,
	StatusInReview:   true,
	StatusDone:       true,
	StatusBlocked:    true,
}

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s Status) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid status %q: must be one of: TODO, IN-PROGRESS, IN-REVIEW, DONE, BLOCKED", s)
	}
	return nil
}

// ParseStatus normalizes free-form input (CLI flags, tool arguments) into
// a Status. Accepts any casing and underscores in place of hyphens.
func ParseStatus(s string) (Status, error) {
	norm := Status(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "_", "-")))
	if err := ValidateStatus(norm); err != nil {
		return "", err
	}
	return norm, nil
}

// --- Core data structures ---

// Task is the unit of work as seen through the router. ID is always
// qualified; backends fill it with their own prefix before returning.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    Status `json:"status"`
	Priority  int    `json:"priority,omitempty"`
	Spec      string `json:"spec,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Draft is the caller-supplied input for creating a task. The owning
// backend assigns the local identifier.
type Draft struct {
	Title    string `json:"title"`
	Spec     string `json:"spec,omitempty"`
	Status   Status `json:"status,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

// Normalize fills defaults and validates the draft. An empty status
// becomes TODO; a draft without a title is rejected.
func (d *Draft) Normalize() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if d.Status == "" {
		d.Status = StatusTodo
	}
	return ValidateStatus(d.Status)
}

// Filter narrows list operations. The zero value matches every task.
type Filter struct {
	Status Status `json:"status,omitempty"`
}

// Matches reports whether the task passes the filter.
func (f Filter) Matches(t Task) bool {
	return f.Status == "" || t.Status == f.Status
}

// --- Slug generation ---

const maxSlugLen = 50

// Slugify converts a task title into a filesystem-safe slug.
// Example: "Fix login redirect loop" becomes "fix-login-redirect-loop".
//
// Rules:
//   - Lowercase
//   - Spaces and underscores become hyphens
//   - Non-alphanumeric characters (except hyphens) are removed
//   - Consecutive hyphens are collapsed
//   - Leading/trailing hyphens are trimmed
//   - Truncated to 50 characters (at a word boundary if possible)
//   - Empty input returns "untitled-task"
func Slugify(title string) string {
	if strings.TrimSpace(title) == "" {
		return "untitled-task"
	}

	s := strings.ToLower(strings.TrimSpace(title))

	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '_' || r == '-':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")

	if slug == "" {
		return "untitled-task"
	}

	if len(slug) <= maxSlugLen {
		return slug
	}

	// Truncate at word boundary if possible.
	truncated := slug[:maxSlugLen]
	if lastHyphen := strings.LastIndex(truncated, "-"); lastHyphen > maxSlugLen/2 {
		truncated = truncated[:lastHyphen]
	}

	return strings.TrimRight(truncated, "-")
}
