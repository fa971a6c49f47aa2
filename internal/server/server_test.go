package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"

	"sprintdash/internal/ci"
	"sprintdash/internal/database"
	"sprintdash/internal/models"
	"sprintdash/internal/tracker"
)

func setupServer(t *testing.T, reader tracker.IssueReader, health HealthReader) (*Server, *database.Database) {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, reader, health), db
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

const base = "/acme/widgets/api/v1"

func TestHealthEndpoint(t *testing.T) {
	srv, _ := setupServer(t, nil, nil)
	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestCreateAndGetSprint(t *testing.T) {
	srv, _ := setupServer(t, nil, nil)

	w := doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{
		"number": 47, "start_date": "2026-01-05", "goal": "ship it",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodGet, base+"/sprints/47", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var detail struct {
		Number     int    `json:"number"`
		Status     string `json:"status"`
		Goal       string `json:"goal"`
		Issues     []int  `json:"issues"`
		IssueCount int    `json:"issue_count"`
	}
	decode(t, w, &detail)
	if detail.Number != 47 || detail.Status != "planned" || detail.Goal != "ship it" {
		t.Fatalf("detail = %+v", detail)
	}
	if detail.Issues == nil || detail.IssueCount != 0 {
		t.Fatalf("issues = %v count = %d", detail.Issues, detail.IssueCount)
	}
}

func TestCreateSprintErrors(t *testing.T) {
	srv, _ := setupServer(t, nil, nil)

	w := doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{"number": 0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("zero number status = %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{
		"number": 1, "start_date": "01/05/2026",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d", w.Code)
	}

	doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{"number": 2})
	w = doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{"number": 2})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", w.Code)
	}
	var body struct {
		Code string `json:"code"`
	}
	decode(t, w, &body)
	if body.Code != "conflict" {
		t.Fatalf("code = %q, want conflict", body.Code)
	}
}

func TestGetSprintNotFound(t *testing.T) {
	srv, _ := setupServer(t, nil, nil)
	w := doJSON(t, srv, http.MethodGet, base+"/sprints/99", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var body struct {
		Code string `json:"code"`
	}
	decode(t, w, &body)
	if body.Code != "not_found" {
		t.Fatalf("code = %q", body.Code)
	}
}

func TestSprintLifecycleOverHTTP(t *testing.T) {
	srv, _ := setupServer(t, nil, nil)

	doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{"number": 1})
	doJSON(t, srv, http.MethodPost, base+"/sprints/1/issues", map[string]any{"issues": []int{10, 11}})

	w := doJSON(t, srv, http.MethodPost, base+"/sprints/1/start", map[string]any{"start_date": "2026-01-05"})
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	var startRes struct {
		Status string `json:"status"`
		Issues []int  `json:"issues"`
	}
	decode(t, w, &startRes)
	if startRes.Status != "in_progress" || len(startRes.Issues) != 2 {
		t.Fatalf("start result = %+v", startRes)
	}

	w = doJSON(t, srv, http.MethodGet, base+"/sprints/current", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("current status = %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, base+"/sprints/1/close", map[string]any{})
	if w.Code != http.StatusOK {
		t.Fatalf("close status = %d: %s", w.Code, w.Body.String())
	}
	var closeRes struct {
		Status string `json:"status"`
	}
	decode(t, w, &closeRes)
	if closeRes.Status != "completed" {
		t.Fatalf("close result = %+v", closeRes)
	}

	w = doJSON(t, srv, http.MethodGet, base+"/sprints/current", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("current after close = %d, want 404", w.Code)
	}

	// Lifecycle violation maps to 400.
	w = doJSON(t, srv, http.MethodPost, base+"/sprints/1/start", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("restart status = %d, want 400", w.Code)
	}
	var body struct {
		Code string `json:"code"`
	}
	decode(t, w, &body)
	if body.Code != "lifecycle_error" {
		t.Fatalf("code = %q", body.Code)
	}
}

func TestCloseWithCarryOverHTTP(t *testing.T) {
	srv, _ := setupServer(t, nil, nil)

	doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{"number": 47})
	doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{"number": 48})
	doJSON(t, srv, http.MethodPost, base+"/sprints/47/issues", map[string]any{"issues": []int{101, 102}})
	doJSON(t, srv, http.MethodPost, base+"/sprints/47/start", map[string]any{})

	w := doJSON(t, srv, http.MethodPost, base+"/sprints/47/close", map[string]any{"carry_over_to": 48})
	if w.Code != http.StatusOK {
		t.Fatalf("close status = %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		CarriedOver struct {
			ToSprint int   `json:"to_sprint"`
			Issues   []int `json:"issues"`
		} `json:"carried_over"`
	}
	decode(t, w, &res)
	if res.CarriedOver.ToSprint != 48 || len(res.CarriedOver.Issues) != 2 {
		t.Fatalf("carried over = %+v", res.CarriedOver)
	}

	w = doJSON(t, srv, http.MethodGet, base+"/sprints/48/issues", nil)
	var issues struct {
		Count int `json:"count"`
	}
	decode(t, w, &issues)
	if issues.Count != 2 {
		t.Fatalf("target issue count = %d, want 2", issues.Count)
	}
}

func TestCancelSprintHTTP(t *testing.T) {
	srv, _ := setupServer(t, nil, nil)

	doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{"number": 1})
	w := doJSON(t, srv, http.MethodPost, base+"/sprints/1/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", w.Code)
	}
	var res struct {
		Status string `json:"status"`
	}
	decode(t, w, &res)
	if res.Status != "cancelled" {
		t.Fatalf("status = %q", res.Status)
	}
}

func TestUpdateSprintStatusRejected(t *testing.T) {
	srv, _ := setupServer(t, nil, nil)

	doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{"number": 1})
	w := doJSON(t, srv, http.MethodPut, base+"/sprints/1", map[string]any{"status": "in_progress"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	decode(t, w, &body)
	if body.Code != "validation_error" {
		t.Fatalf("code = %q", body.Code)
	}
}

func TestIssueEndpoints(t *testing.T) {
	srv, _ := setupServer(t, nil, nil)

	doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{"number": 1})
	doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{"number": 2})

	w := doJSON(t, srv, http.MethodPost, base+"/sprints/1/issues", map[string]any{
		"issues": []int{10, 11, 10},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("add status = %d: %s", w.Code, w.Body.String())
	}
	var added struct {
		Added []int `json:"added"`
	}
	decode(t, w, &added)
	if len(added.Added) != 2 {
		t.Fatalf("added = %v, want deduplicated pair", added.Added)
	}

	w = doJSON(t, srv, http.MethodPost, base+"/sprints/1/issues", map[string]any{"issues": []int{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty add status = %d", w.Code)
	}
	w = doJSON(t, srv, http.MethodPost, base+"/sprints/1/issues", map[string]any{"issues": []int{-1}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative add status = %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, base+"/issues/move", map[string]any{
		"issues": []int{10}, "from_sprint": 1, "to_sprint": 2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("move status = %d: %s", w.Code, w.Body.String())
	}

	// Moving an issue that is not in the source is rejected before any
	// mutation.
	w = doJSON(t, srv, http.MethodPost, base+"/issues/move", map[string]any{
		"issues": []int{10, 11}, "from_sprint": 1, "to_sprint": 2,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("partial move status = %d, want 400", w.Code)
	}
	w = doJSON(t, srv, http.MethodGet, base+"/sprints/1/issues", nil)
	var remaining struct {
		Issues []int `json:"issues"`
	}
	decode(t, w, &remaining)
	if len(remaining.Issues) != 1 || remaining.Issues[0] != 11 {
		t.Fatalf("source issues after rejected move = %v, want [11]", remaining.Issues)
	}

	w = doJSON(t, srv, http.MethodDelete, base+"/sprints/1/issues/11", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("remove status = %d, want 204", w.Code)
	}
	w = doJSON(t, srv, http.MethodDelete, base+"/sprints/1/issues/11", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second remove status = %d, want 404", w.Code)
	}
}

type fakeHealth struct{}

func (fakeHealth) GetHealth(ctx context.Context, owner, repo string) *ci.Health {
	return &ci.Health{SHA: "abc12345", State: "success"}
}

func TestBoard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	reader := tracker.NewMockIssueReader(ctrl)
	srv, db := setupServer(t, reader, fakeHealth{})

	ctx := context.Background()
	store := database.NewStore(db, "acme", "widgets")
	if _, err := store.CreateSprint(ctx, 1, "", "", ""); err != nil {
		t.Fatalf("CreateSprint failed: %v", err)
	}
	for _, n := range []int{10, 11} {
		if err := store.AddIssue(ctx, 1, n, models.SourceManual); err != nil {
			t.Fatalf("AddIssue failed: %v", err)
		}
	}
	if _, err := store.StartSprint(ctx, 1, "2026-01-05"); err != nil {
		t.Fatalf("StartSprint failed: %v", err)
	}

	reader.EXPECT().ListIssues(gomock.Any(), "all").Return([]tracker.Issue{
		{Number: 10, Title: "closed one", State: "closed", Labels: []string{"size/M"}},
		{Number: 11, Title: "open one", State: "open", Labels: []string{"size/S"}},
		{Number: 12, Title: "backlog item", State: "open"},
	}, nil)

	w := doJSON(t, srv, http.MethodGet, base+"/board", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("board status = %d: %s", w.Code, w.Body.String())
	}
	var view struct {
		Sprint      *struct{ Number int }
		Issues      []struct{ Number, Points int }
		TotalPoints int `json:"total_points"`
		DonePoints  int `json:"done_points"`
		Backlog     []struct{ Number int }
		CI          *struct{ State string } `json:"ci"`
	}
	decode(t, w, &view)
	if view.Sprint == nil || view.Sprint.Number != 1 {
		t.Fatalf("sprint = %+v", view.Sprint)
	}
	if len(view.Issues) != 2 || len(view.Backlog) != 1 {
		t.Fatalf("issues = %d backlog = %d", len(view.Issues), len(view.Backlog))
	}
	if view.TotalPoints != 4 || view.DonePoints != 3 {
		t.Fatalf("points = %d/%d, want 4/3", view.TotalPoints, view.DonePoints)
	}
	if view.CI == nil || view.CI.State != "success" {
		t.Fatalf("ci = %+v", view.CI)
	}
}

func TestBoardUnknownIssuesSorted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	reader := tracker.NewMockIssueReader(ctrl)
	srv, db := setupServer(t, reader, nil)

	ctx := context.Background()
	store := database.NewStore(db, "acme", "widgets")
	if _, err := store.CreateSprint(ctx, 1, "", "", ""); err != nil {
		t.Fatalf("CreateSprint failed: %v", err)
	}
	for _, n := range []int{31, 7, 19, 2} {
		if err := store.AddIssue(ctx, 1, n, models.SourceManual); err != nil {
			t.Fatalf("AddIssue failed: %v", err)
		}
	}
	if _, err := store.StartSprint(ctx, 1, "2026-01-05"); err != nil {
		t.Fatalf("StartSprint failed: %v", err)
	}

	// Tracker knows none of the member issues.
	reader.EXPECT().ListIssues(gomock.Any(), "all").Return(nil, nil)

	w := doJSON(t, srv, http.MethodGet, base+"/board", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("board status = %d: %s", w.Code, w.Body.String())
	}
	var view struct {
		Issues []struct {
			Number int
			State  string
		}
	}
	decode(t, w, &view)
	if len(view.Issues) != 4 {
		t.Fatalf("issues = %d, want 4", len(view.Issues))
	}
	for i, want := range []int{2, 7, 19, 31} {
		if view.Issues[i].Number != want {
			t.Fatalf("issues[%d] = %d, want %d", i, view.Issues[i].Number, want)
		}
		if view.Issues[i].State != "unknown" {
			t.Fatalf("issues[%d].State = %q", i, view.Issues[i].State)
		}
	}
}

func TestBoardWithoutTracker(t *testing.T) {
	srv, _ := setupServer(t, nil, nil)
	w := doJSON(t, srv, http.MethodGet, base+"/board", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestRepoScopeInURL(t *testing.T) {
	srv, _ := setupServer(t, nil, nil)

	doJSON(t, srv, http.MethodPost, base+"/sprints", map[string]any{"number": 1})

	w := doJSON(t, srv, http.MethodGet, "/acme/gadgets/api/v1/sprints/1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("cross-repo get status = %d, want 404", w.Code)
	}

	w = doJSON(t, srv, http.MethodGet, fmt.Sprintf("%s/sprints/%d", base, 1), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("same-repo get status = %d, want 200", w.Code)
	}
}
