package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sprintdash/internal/models"
)

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	n, ok := sprintNumber(w, r)
	if !ok {
		return
	}
	issues, err := s.store(r).IssueNumbers(r.Context(), n)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if issues == nil {
		issues = []int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sprint": n,
		"issues": issues,
		"count":  len(issues),
	})
}

type issueAddBody struct {
	Issues []int  `json:"issues"`
	Source string `json:"source"`
}

func (s *Server) addIssues(w http.ResponseWriter, r *http.Request) {
	n, ok := sprintNumber(w, r)
	if !ok {
		return
	}
	var body issueAddBody
	if !decodeBody(w, r, &body) {
		return
	}
	if len(body.Issues) == 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "issues list must not be empty")
		return
	}
	for _, num := range body.Issues {
		if num <= 0 {
			writeError(w, http.StatusBadRequest, "validation_error", "all issue numbers must be positive integers")
			return
		}
	}
	source := models.AssignmentSource(body.Source)
	if source == "" {
		source = models.SourceManual
	}
	switch source {
	case models.SourceManual, models.SourceRollover, models.SourceMigration:
	default:
		writeError(w, http.StatusBadRequest, "validation_error", "invalid source")
		return
	}

	store := s.store(r)
	ctx := r.Context()
	if _, err := store.GetSprint(ctx, n); err != nil {
		writeStoreError(w, err)
		return
	}

	var added []int
	for _, num := range dedupe(body.Issues) {
		if err := store.AddIssue(ctx, n, num, source); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error: fmt.Sprintf("failed to add issue %d: %v", num, err),
				Code:  "lifecycle_error",
				Added: added,
			})
			return
		}
		added = append(added, num)
	}
	writeJSON(w, http.StatusOK, map[string]any{"sprint": n, "added": added})
}

func (s *Server) removeIssue(w http.ResponseWriter, r *http.Request) {
	n, ok := sprintNumber(w, r)
	if !ok {
		return
	}
	issue, err := strconv.Atoi(chi.URLParam(r, "issue"))
	if err != nil || issue <= 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "issue number must be a positive integer")
		return
	}
	if err := s.store(r).RemoveIssue(r.Context(), n, issue); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type issueMoveBody struct {
	Issues     []int `json:"issues"`
	FromSprint int   `json:"from_sprint"`
	ToSprint   int   `json:"to_sprint"`
}

func (s *Server) moveIssues(w http.ResponseWriter, r *http.Request) {
	var body issueMoveBody
	if !decodeBody(w, r, &body) {
		return
	}
	if len(body.Issues) == 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "issues list must not be empty")
		return
	}
	if body.FromSprint <= 0 || body.ToSprint <= 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "sprint numbers must be positive integers")
		return
	}
	for _, num := range body.Issues {
		if num <= 0 {
			writeError(w, http.StatusBadRequest, "validation_error", "all issue numbers must be positive integers")
			return
		}
	}

	store := s.store(r)
	ctx := r.Context()
	if _, err := store.GetSprint(ctx, body.FromSprint); err != nil {
		writeStoreError(w, err)
		return
	}
	if _, err := store.GetSprint(ctx, body.ToSprint); err != nil {
		writeStoreError(w, err)
		return
	}

	// All issues must be in the source before any move happens, so a bad
	// request never mutates half the list.
	unique := dedupe(body.Issues)
	source, err := store.IssueNumbers(ctx, body.FromSprint)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	inSource := make(map[int]bool, len(source))
	for _, num := range source {
		inSource[num] = true
	}
	var missing []int
	for _, num := range unique {
		if !inSource[num] {
			missing = append(missing, num)
		}
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "lifecycle_error",
			fmt.Sprintf("issues not in sprint %d: %v", body.FromSprint, missing))
		return
	}

	var moved []int
	for _, num := range unique {
		if err := store.MoveIssue(ctx, num, body.FromSprint, body.ToSprint); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error: fmt.Sprintf("failed to move issue %d: %v", num, err),
				Code:  "lifecycle_error",
				Moved: moved,
			})
			return
		}
		moved = append(moved, num)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from_sprint": body.FromSprint,
		"to_sprint":   body.ToSprint,
		"moved":       moved,
	})
}
