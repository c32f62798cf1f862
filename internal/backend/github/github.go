// Package github serves tasks from the issues of one GitHub repository.
// Issue numbers are the local identifiers; the task status rides on a
// status:* label, with closed issues reading as DONE.
//
// Issues cannot be deleted through the REST API, so DeleteTask closes the
// issue as not planned instead. That keeps delete idempotent: a second
// delete of a closed issue reports nothing removed.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/HendryAvila/taskroute/internal/backend"
	"github.com/HendryAvila/taskroute/internal/task"
	"github.com/HendryAvila/taskroute/internal/taskerr"
)

// Prefix is the namespace this adapter serves.
const Prefix = "gh"

const (
	defaultBaseURL = "https://api.github.com"
	statusLabel    = "status:"
	priorityLabel  = "priority:"

	// listPageSize is the GitHub maximum; maxListPages bounds runaway
	// repositories.
	listPageSize = 100
	maxListPages = 10
)

// Options configures a Client.
type Options struct {
	// Repo is the "owner/name" repository path.
	Repo string
	// BaseURL overrides the API host, for GitHub Enterprise and tests.
	BaseURL string
	// Token is sent as a bearer token when set. Unauthenticated clients
	// work against public repositories with tight rate limits.
	Token string
	// HTTPClient overrides the default 10s-timeout client.
	HTTPClient *http.Client
}

// Client is a GitHub-issues task backend.
type Client struct {
	repo    string
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the configured repository.
func New(opts Options) *Client {
	c := &Client{
		repo:    opts.Repo,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 10 * time.Second}
	}
	return c
}

// Prefix implements backend.Backend.
func (c *Client) Prefix() string { return Prefix }

// ListTasks implements backend.Backend.
func (c *Client) ListTasks(ctx context.Context, f task.Filter) ([]task.Task, error) {
	var out []task.Task
	for page := 1; page <= maxListPages; page++ {
		path := fmt.Sprintf("/repos/%s/issues?state=all&per_page=%d&page=%d", c.repo, listPageSize, page)
		res, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		issues := res.Array()
		for _, issue := range issues {
			// The issues endpoint also returns pull requests.
			if issue.Get("pull_request").Exists() {
				continue
			}
			t := issueToTask(issue)
			if f.Matches(t) {
				out = append(out, t)
			}
		}

		if len(issues) < listPageSize {
			break
		}
	}
	return out, nil
}

// GetTask implements backend.Backend.
func (c *Client) GetTask(ctx context.Context, local string) (task.Task, error) {
	res, err := c.do(ctx, http.MethodGet, c.issuePath(local), nil)
	if err != nil {
		return task.Task{}, err
	}
	return issueToTask(res), nil
}

// CreateTask implements backend.Backend.
func (c *Client) CreateTask(ctx context.Context, d task.Draft) (task.Task, error) {
	body := map[string]any{
		"title":  d.Title,
		"body":   d.Spec,
		"labels": draftLabels(d),
	}
	res, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/issues", c.repo), body)
	if err != nil {
		return task.Task{}, err
	}

	// DONE cannot be expressed at creation time; close the fresh issue.
	if d.Status == task.StatusDone {
		local := strconv.FormatInt(res.Get("number").Int(), 10)
		if err := c.SetTaskStatus(ctx, local, task.StatusDone); err != nil {
			return task.Task{}, err
		}
		return c.GetTask(ctx, local)
	}
	return issueToTask(res), nil
}

// SetTaskStatus implements backend.Backend.
func (c *Client) SetTaskStatus(ctx context.Context, local string, st task.Status) error {
	// Labels are replaced wholesale on PATCH, so carry the foreign ones.
	current, err := c.do(ctx, http.MethodGet, c.issuePath(local), nil)
	if err != nil {
		return err
	}

	labels := []string{statusLabel + string(st)}
	current.Get("labels").ForEach(func(_, l gjson.Result) bool {
		name := l.Get("name").String()
		if !strings.HasPrefix(name, statusLabel) {
			labels = append(labels, name)
		}
		return true
	})

	state := "open"
	if st == task.StatusDone {
		state = "closed"
	}

	_, err = c.do(ctx, http.MethodPatch, c.issuePath(local), map[string]any{
		"state":  state,
		"labels": labels,
	})
	return err
}

// DeleteTask implements backend.Backend.
func (c *Client) DeleteTask(ctx context.Context, local string) (bool, error) {
	current, err := c.do(ctx, http.MethodGet, c.issuePath(local), nil)
	if taskerr.IsCode(err, taskerr.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if current.Get("state").String() == "closed" {
		return false, nil
	}

	_, err = c.do(ctx, http.MethodPatch, c.issuePath(local), map[string]any{
		"state":        "closed",
		"state_reason": "not_planned",
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) issuePath(local string) string {
	return fmt.Sprintf("/repos/%s/issues/%s", c.repo, strings.TrimSpace(backend.StripPrefix(local, Prefix)))
}

// do executes one API call and maps the response status into the error
// taxonomy: 404 is NotFound, anything else non-2xx is BackendUnavailable
// carrying the API message.
func (c *Client) do(ctx context.Context, method, path string, body any) (gjson.Result, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, taskerr.Wrap(taskerr.BackendUnavailable, err, "encoding request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return gjson.Result{}, taskerr.Wrap(taskerr.BackendUnavailable, err, "creating request")
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "taskroute")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, taskerr.Wrap(taskerr.BackendUnavailable, err, "calling github api")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, taskerr.Wrap(taskerr.BackendUnavailable, err, "reading github response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return gjson.Result{}, taskerr.New(taskerr.NotFound, "issue not found in %s", c.repo)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := gjson.GetBytes(data, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return gjson.Result{}, taskerr.New(taskerr.BackendUnavailable, "github api returned %d: %s", resp.StatusCode, msg)
	}

	return gjson.ParseBytes(data), nil
}

// issueToTask maps one issue object onto a task. A closed issue is DONE
// whatever its labels say; an open issue without a status label is TODO.
func issueToTask(issue gjson.Result) task.Task {
	t := task.Task{
		ID:        backend.QualifyID(Prefix, strconv.FormatInt(issue.Get("number").Int(), 10)),
		Title:     issue.Get("title").String(),
		Status:    task.StatusTodo,
		Spec:      issue.Get("body").String(),
		CreatedAt: issue.Get("created_at").String(),
		UpdatedAt: issue.Get("updated_at").String(),
	}

	issue.Get("labels").ForEach(func(_, l gjson.Result) bool {
		name := l.Get("name").String()
		switch {
		case strings.HasPrefix(name, statusLabel):
			if st, err := task.ParseStatus(strings.TrimPrefix(name, statusLabel)); err == nil {
				t.Status = st
			}
		case strings.HasPrefix(name, priorityLabel):
			if p, err := strconv.Atoi(strings.TrimPrefix(name, priorityLabel)); err == nil {
				t.Priority = p
			}
		}
		return true
	})

	if issue.Get("state").String() == "closed" {
		t.Status = task.StatusDone
	}
	return t
}

// draftLabels renders the labels for a new issue.
func draftLabels(d task.Draft) []string {
	labels := []string{statusLabel + string(d.Status)}
	if d.Priority != 0 {
		labels = append(labels, priorityLabel+strconv.Itoa(d.Priority))
	}
	return labels
}
