package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"sprintdash/internal/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(&config.Config{
		GiteaURL:   srv.URL,
		GiteaToken: "test-token",
		Owner:      "acme",
		Repo:       "widgets",
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://git.example.com", "https://git.example.com/api/v1"},
		{"https://git.example.com/", "https://git.example.com/api/v1"},
		{"https://git.example.com/api/v1", "https://git.example.com/api/v1"},
		{"https://git.example.com/api", "https://git.example.com/api/v1"},
		{"  https://git.example.com//  ", "https://git.example.com/api/v1"},
	}
	for _, tc := range cases {
		if got := normalizeBaseURL(tc.in); got != tc.want {
			t.Fatalf("normalizeBaseURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestListIssuesPagination(t *testing.T) {
	// Two full pages then a short one.
	total := config.PageLimit*2 + 5
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/repos/acme/widgets/issues" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "token test-token" {
			t.Errorf("authorization header = %q", auth)
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		start := (page - 1) * config.PageLimit
		var batch []map[string]any
		for i := start; i < start+config.PageLimit && i < total; i++ {
			batch = append(batch, map[string]any{
				"number": i + 1,
				"title":  fmt.Sprintf("issue %d", i+1),
				"state":  "open",
				"labels": []map[string]any{{"name": "sprint/1"}},
			})
		}
		json.NewEncoder(w).Encode(batch)
	}))

	issues, err := client.ListIssues(context.Background(), "all")
	if err != nil {
		t.Fatalf("ListIssues failed: %v", err)
	}
	if len(issues) != total {
		t.Fatalf("issues = %d, want %d", len(issues), total)
	}
	if issues[0].SprintNumber() != 1 {
		t.Fatalf("label conversion lost: %+v", issues[0])
	}
}

func TestGetIssue(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/repos/acme/widgets/issues/7" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"number": 7,
			"title":  "fix the flaky test",
			"state":  "closed",
			"labels": []map[string]any{{"name": "size/M"}, {"name": "bug"}},
		})
	}))

	issue, err := client.GetIssue(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetIssue failed: %v", err)
	}
	if issue.Number != 7 || issue.Points() != 3 || issue.Type() != "bug" {
		t.Fatalf("unexpected issue: %+v", issue)
	}
}

func TestGetIssueAPIError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))

	_, err := client.GetIssue(context.Background(), 999)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", apiErr.StatusCode)
	}
}

func TestMilestones(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/repos/acme/widgets/milestones" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "title": "Sprint 45", "state": "closed"},
			{"id": 2, "title": "Sprint 46", "state": "open", "description": "start_date: 2020-01-06"},
			{"id": 3, "title": "v2 release", "state": "open"},
		})
	}))

	milestones, err := client.Milestones(context.Background(), "all")
	if err != nil {
		t.Fatalf("Milestones failed: %v", err)
	}
	if len(milestones) != 3 {
		t.Fatalf("milestones = %d, want 3", len(milestones))
	}
	if milestones[0].SprintNumber() != 45 || milestones[2].SprintNumber() != 0 {
		t.Fatalf("sprint number parsing: %+v", milestones)
	}
}
