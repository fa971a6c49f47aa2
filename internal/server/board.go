package server

import (
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"sprintdash/internal/ci"
	"sprintdash/internal/database"
	"sprintdash/internal/models"
	"sprintdash/internal/tracker"
)

type boardIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Size   string `json:"size,omitempty"`
	Points int    `json:"points"`
	Type   string `json:"type"`
	Epic   string `json:"epic,omitempty"`
}

type boardView struct {
	Sprint      *models.Sprint `json:"sprint"`
	Issues      []boardIssue   `json:"issues"`
	TotalPoints int            `json:"total_points"`
	DonePoints  int            `json:"done_points"`
	Backlog     []boardIssue   `json:"backlog"`
	CI          *ci.Health     `json:"ci,omitempty"`
}

// board joins the active sprint's membership with live tracker data and,
// when configured, CI health. Issues the tracker no longer knows are shown
// by number only.
func (s *Server) board(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "issue tracker is not configured")
		return
	}

	store := s.store(r)
	ctx := r.Context()

	view := boardView{Issues: []boardIssue{}, Backlog: []boardIssue{}}

	number, err := store.CurrentSprintNumber(ctx)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		writeStoreError(w, err)
		return
	}

	var members map[int]bool
	if err == nil {
		sp, err := store.GetSprint(ctx, number)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		view.Sprint = sp

		nums, err := store.IssueNumbers(ctx, number)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		members = make(map[int]bool, len(nums))
		for _, n := range nums {
			members[n] = true
		}
	}

	assigned, err := store.AllAssignedNumbers(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	all, err := s.tracker.ListIssues(ctx, "all")
	if err != nil {
		writeError(w, http.StatusBadGateway, "tracker_error", err.Error())
		return
	}

	known := make(map[int]bool, len(all))
	for _, issue := range all {
		known[issue.Number] = true
		entry := toBoardIssue(issue)
		switch {
		case members[issue.Number]:
			view.Issues = append(view.Issues, entry)
			view.TotalPoints += entry.Points
			if issue.IsClosed() {
				view.DonePoints += entry.Points
			}
		case !assigned[issue.Number] && issue.State == "open":
			view.Backlog = append(view.Backlog, entry)
		}
	}
	var missing []int
	for n := range members {
		if !known[n] {
			missing = append(missing, n)
		}
	}
	sort.Ints(missing)
	for _, n := range missing {
		view.Issues = append(view.Issues, boardIssue{Number: n, State: "unknown", Type: "unknown"})
	}

	if s.ci != nil {
		view.CI = s.ci.GetHealth(ctx, chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	}

	writeJSON(w, http.StatusOK, view)
}

func toBoardIssue(issue tracker.Issue) boardIssue {
	return boardIssue{
		Number: issue.Number,
		Title:  issue.Title,
		State:  issue.State,
		Size:   issue.Size(),
		Points: issue.Points(),
		Type:   issue.Type(),
		Epic:   issue.Epic(),
	}
}
