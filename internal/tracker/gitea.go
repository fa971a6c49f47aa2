package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sprintdash/internal/config"
)

// APIError is returned for non-2xx responses from Gitea.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gitea API error: status %d: %s", e.StatusCode, e.Body)
}

// Client is a minimal Gitea API client scoped to one repository.
type Client struct {
	baseURL string
	token   string
	owner   string
	repo    string
	http    *http.Client
}

// NewClient builds a client from resolved configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := cfg.RequireGitea(); err != nil {
		return nil, err
	}
	if err := cfg.RequireRepo(); err != nil {
		return nil, err
	}
	return &Client{
		baseURL: normalizeBaseURL(cfg.GiteaURL),
		token:   cfg.GiteaToken,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		http:    &http.Client{Timeout: config.RequestTimeout},
	}, nil
}

// normalizeBaseURL strips whitespace, trailing slashes, and any existing
// /api or /api/v1 suffix, then appends /api/v1.
func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	raw = strings.TrimSuffix(raw, "/api/v1")
	raw = strings.TrimSuffix(raw, "/api")
	return raw + "/api/v1"
}

// Owner returns the configured repository owner.
func (c *Client) Owner() string { return c.owner }

// Repo returns the configured repository name.
func (c *Client) Repo() string { return c.repo }

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gitea request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type wireLabel struct {
	Name string `json:"name"`
}

type wireIssue struct {
	Number    int         `json:"number"`
	Title     string      `json:"title"`
	State     string      `json:"state"`
	Labels    []wireLabel `json:"labels"`
	Body      string      `json:"body"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
	ClosedAt  *string     `json:"closed_at"`
}

func (w wireIssue) toIssue() Issue {
	labels := make([]string, 0, len(w.Labels))
	for _, l := range w.Labels {
		labels = append(labels, l.Name)
	}
	issue := Issue{
		Number:    w.Number,
		Title:     w.Title,
		State:     w.State,
		Labels:    labels,
		Body:      w.Body,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	if w.ClosedAt != nil {
		issue.ClosedAt = *w.ClosedAt
	}
	return issue
}

// ListIssues fetches all issues matching state ("open", "closed", "all"),
// following pagination up to the configured page ceiling.
func (c *Client) ListIssues(ctx context.Context, state string) ([]Issue, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues", c.owner, c.repo)
	var issues []Issue
	for page := 1; page <= config.MaxPages; page++ {
		query := url.Values{
			"state": {state},
			"type":  {"issues"},
			"limit": {strconv.Itoa(config.PageLimit)},
			"page":  {strconv.Itoa(page)},
		}
		var batch []wireIssue
		if err := c.get(ctx, path, query, &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		for _, w := range batch {
			issues = append(issues, w.toIssue())
		}
		if len(batch) < config.PageLimit {
			break
		}
	}
	return issues, nil
}

// GetIssue fetches one issue by number.
func (c *Client) GetIssue(ctx context.Context, number int) (*Issue, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", c.owner, c.repo, number)
	var w wireIssue
	if err := c.get(ctx, path, nil, &w); err != nil {
		return nil, err
	}
	issue := w.toIssue()
	return &issue, nil
}

// Milestones fetches milestones matching state ("open", "closed", "all").
func (c *Client) Milestones(ctx context.Context, state string) ([]Milestone, error) {
	path := fmt.Sprintf("/repos/%s/%s/milestones", c.owner, c.repo)
	var milestones []Milestone
	for page := 1; page <= config.MaxPages; page++ {
		query := url.Values{
			"state": {state},
			"limit": {strconv.Itoa(config.PageLimit)},
			"page":  {strconv.Itoa(page)},
		}
		var batch []Milestone
		if err := c.get(ctx, path, query, &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		milestones = append(milestones, batch...)
		if len(batch) < config.PageLimit {
			break
		}
	}
	return milestones, nil
}
