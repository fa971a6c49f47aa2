package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sprintdash/internal/database"
	"sprintdash/internal/models"
)

func sprintNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "sprint number must be a positive integer")
		return 0, false
	}
	return n, true
}

func (s *Server) listSprints(w http.ResponseWriter, r *http.Request) {
	status := models.SprintStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid status filter")
		return
	}
	sprints, err := s.store(r).ListSprints(r.Context(), status)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if sprints == nil {
		sprints = []models.Sprint{}
	}
	writeJSON(w, http.StatusOK, sprints)
}

type sprintCreateBody struct {
	Number    int    `json:"number"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Goal      string `json:"goal"`
}

func (s *Server) createSprint(w http.ResponseWriter, r *http.Request) {
	var body sprintCreateBody
	if !decodeBody(w, r, &body) {
		return
	}
	for _, d := range []string{body.StartDate, body.EndDate} {
		if d != "" && !validDate(d) {
			writeError(w, http.StatusBadRequest, "validation_error", "dates must be YYYY-MM-DD")
			return
		}
	}
	sp, err := s.store(r).CreateSprint(r.Context(), body.Number, body.StartDate, body.EndDate, body.Goal)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

func (s *Server) currentSprint(w http.ResponseWriter, r *http.Request) {
	store := s.store(r)
	number, err := store.CurrentSprintNumber(r.Context())
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "no sprint in progress")
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	sp, err := store.GetSprint(r.Context(), number)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

type snapshotView struct {
	TotalIssues  int   `json:"total_issues"`
	TotalPoints  int   `json:"total_points"`
	IssueNumbers []int `json:"issue_numbers"`
}

type sprintDetail struct {
	*models.Sprint
	Issues        []int         `json:"issues"`
	IssueCount    int           `json:"issue_count"`
	StartSnapshot *snapshotView `json:"start_snapshot"`
	EndSnapshot   *snapshotView `json:"end_snapshot"`
}

func (s *Server) getSprint(w http.ResponseWriter, r *http.Request) {
	n, ok := sprintNumber(w, r)
	if !ok {
		return
	}
	store := s.store(r)
	ctx := r.Context()

	sp, err := store.GetSprint(ctx, n)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	issues, err := store.IssueNumbers(ctx, n)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if issues == nil {
		issues = []int{}
	}

	detail := sprintDetail{Sprint: sp, Issues: issues, IssueCount: len(issues)}
	for _, typ := range []models.SnapshotType{models.SnapshotStart, models.SnapshotEnd} {
		snap, err := store.GetSnapshot(ctx, n, typ)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			writeStoreError(w, err)
			return
		}
		view := &snapshotView{
			TotalIssues:  snap.TotalIssues,
			TotalPoints:  snap.TotalPoints,
			IssueNumbers: snap.IssueNumbers,
		}
		if typ == models.SnapshotStart {
			detail.StartSnapshot = view
		} else {
			detail.EndSnapshot = view
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

type sprintUpdateBody struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Goal      *string `json:"goal"`
	Status    *string `json:"status"`
}

func (s *Server) updateSprint(w http.ResponseWriter, r *http.Request) {
	n, ok := sprintNumber(w, r)
	if !ok {
		return
	}
	var body sprintUpdateBody
	if !decodeBody(w, r, &body) {
		return
	}
	for _, d := range []*string{body.StartDate, body.EndDate} {
		if d != nil && *d != "" && !validDate(*d) {
			writeError(w, http.StatusBadRequest, "validation_error", "dates must be YYYY-MM-DD")
			return
		}
	}
	sp, err := s.store(r).UpdateSprint(r.Context(), n, database.SprintUpdate{
		StartDate: body.StartDate,
		EndDate:   body.EndDate,
		Goal:      body.Goal,
		Status:    body.Status,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

type sprintStartBody struct {
	StartDate string `json:"start_date"`
}

func (s *Server) startSprint(w http.ResponseWriter, r *http.Request) {
	n, ok := sprintNumber(w, r)
	if !ok {
		return
	}
	var body sprintStartBody
	if !decodeBody(w, r, &body) {
		return
	}
	startDate := body.StartDate
	if startDate == "" {
		startDate = today()
	} else if !validDate(startDate) {
		writeError(w, http.StatusBadRequest, "validation_error", "start_date must be YYYY-MM-DD")
		return
	}
	res, err := s.store(r).StartSprint(r.Context(), n, startDate)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type sprintCloseBody struct {
	CarryOverTo *int `json:"carry_over_to"`
}

func (s *Server) closeSprint(w http.ResponseWriter, r *http.Request) {
	n, ok := sprintNumber(w, r)
	if !ok {
		return
	}
	var body sprintCloseBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.CarryOverTo != nil && *body.CarryOverTo <= 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "carry_over_to must be positive")
		return
	}

	store := s.store(r)
	ctx := r.Context()
	issues, err := store.IssueNumbers(ctx, n)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	req := database.CloseRequest{
		Number:       n,
		EndDate:      today(),
		TotalIssues:  len(issues),
		IssueNumbers: issues,
		CarryOverTo:  body.CarryOverTo,
	}
	if body.CarryOverTo != nil {
		// The HTTP surface carries all remaining issues forward.
		req.CarryOverIssues = issues
		if req.CarryOverIssues == nil {
			req.CarryOverIssues = []int{}
		}
	}
	res, err := store.CloseSprint(ctx, req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) cancelSprint(w http.ResponseWriter, r *http.Request) {
	n, ok := sprintNumber(w, r)
	if !ok {
		return
	}
	res, err := s.store(r).CancelSprint(r.Context(), n)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
