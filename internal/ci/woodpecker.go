// Package ci reads pipeline health from Woodpecker CI. The board shows the
// latest push pipeline's per-workflow status next to the active sprint.
package ci

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"sprintdash/internal/config"
)

// Workflows tracked on the board, in pipeline order.
var PipelineWorkflows = []string{
	"ci.yml",
	"build.yml",
	"staging-deploy.yml",
	"staging-verify.yml",
}

// WorkflowStatus is one workflow's state within the latest pipeline.
type WorkflowStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

// Health summarizes the latest push pipeline.
type Health struct {
	SHA       string           `json:"sha"`
	State     string           `json:"state"`
	Workflows []WorkflowStatus `json:"workflows"`
}

// Unknown is returned when health cannot be determined.
func Unknown() *Health {
	return &Health{SHA: "?", State: "unknown"}
}

// Client is a Woodpecker CI API client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client

	mu      sync.Mutex
	repoIDs map[string]int64
}

// NewClient builds a client from resolved configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.WoodpeckerURL == "" {
		return nil, fmt.Errorf("no Woodpecker URL configured: set WOODPECKER_URL")
	}
	if cfg.WoodpeckerToken == "" {
		return nil, fmt.Errorf("no Woodpecker token configured: set WOODPECKER_TOKEN")
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.WoodpeckerURL, "/"),
		token:   cfg.WoodpeckerToken,
		http:    &http.Client{Timeout: config.RequestTimeout},
		repoIDs: make(map[string]int64),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + "/api" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("woodpecker request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("woodpecker API error: status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// repoID resolves owner/repo to Woodpecker's numeric repo ID, cached for
// the client's lifetime since IDs never change.
func (c *Client) repoID(ctx context.Context, owner, repo string) (int64, error) {
	key := owner + "/" + repo
	c.mu.Lock()
	id, ok := c.repoIDs[key]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	var result struct {
		ID int64 `json:"id"`
	}
	path := "/repos/lookup/" + url.PathEscape(key)
	if err := c.get(ctx, path, nil, &result); err != nil {
		return 0, fmt.Errorf("resolve repo ID for %s: %w", key, err)
	}

	c.mu.Lock()
	c.repoIDs[key] = result.ID
	c.mu.Unlock()
	return result.ID, nil
}

// mapStatus translates Woodpecker's status vocabulary to ours.
func mapStatus(status string) string {
	switch strings.ToLower(status) {
	case "success":
		return "success"
	case "failure", "error":
		return "failure"
	case "running":
		return "running"
	case "pending", "blocked":
		return "pending"
	case "declined", "killed":
		return "cancelled"
	default:
		return "unknown"
	}
}

// aggregateState derives an overall state from per-workflow statuses.
// not_run placeholders are ignored; any failure dominates, then any
// running/pending, then cancelled.
func aggregateState(workflows []WorkflowStatus) string {
	var ran []string
	for _, wf := range workflows {
		if wf.Status != "not_run" {
			ran = append(ran, wf.Status)
		}
	}
	if len(ran) == 0 {
		return "pending"
	}
	has := func(states ...string) bool {
		for _, s := range ran {
			for _, want := range states {
				if s == want {
					return true
				}
			}
		}
		return false
	}
	switch {
	case has("failure"):
		return "failure"
	case has("running", "pending"):
		return "running"
	case has("cancelled"):
		return "cancelled"
	default:
		allSuccess := true
		for _, s := range ran {
			if s != "success" && s != "skipped" {
				allSuccess = false
			}
		}
		if allSuccess {
			return "success"
		}
		return "pending"
	}
}

type pipeline struct {
	Number int64  `json:"number"`
	Commit string `json:"commit"`
}

type pipelineDetail struct {
	Workflows []struct {
		Name  string `json:"name"`
		State string `json:"state"`
	} `json:"workflows"`
}

// GetHealth returns the health of the latest push pipeline for owner/repo.
// API failures degrade to the unknown state rather than erroring, so the
// board renders without CI data.
func (c *Client) GetHealth(ctx context.Context, owner, repo string) *Health {
	health, err := c.fetchHealth(ctx, owner, repo)
	if err != nil {
		return Unknown()
	}
	return health
}

func (c *Client) fetchHealth(ctx context.Context, owner, repo string) (*Health, error) {
	repoID, err := c.repoID(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	var pipelines []pipeline
	query := url.Values{"per_page": {"5"}, "event": {"push"}}
	if err := c.get(ctx, fmt.Sprintf("/repos/%d/pipelines", repoID), query, &pipelines); err != nil {
		return nil, err
	}
	if len(pipelines) == 0 {
		return Unknown(), nil
	}

	latest := pipelines[0]
	var detail pipelineDetail
	if err := c.get(ctx, fmt.Sprintf("/repos/%d/pipelines/%d", repoID, latest.Number), nil, &detail); err != nil {
		return nil, err
	}

	sha := latest.Commit
	if len(sha) > 8 {
		sha = sha[:8]
	}
	if sha == "" {
		sha = "?"
	}

	pipelineURL := fmt.Sprintf("%s/repos/%d/pipeline/%d", c.baseURL, repoID, latest.Number)
	workflows := make([]WorkflowStatus, 0, len(PipelineWorkflows))
	for _, name := range PipelineWorkflows {
		status := WorkflowStatus{Name: name, Status: "not_run"}
		for _, wf := range detail.Workflows {
			if wf.Name == name {
				status.Status = mapStatus(wf.State)
				status.URL = pipelineURL
				break
			}
		}
		workflows = append(workflows, status)
	}

	return &Health{
		SHA:       sha,
		State:     aggregateState(workflows),
		Workflows: workflows,
	}, nil
}
