// Package server exposes the sprint store over HTTP. All endpoints live
// under /{owner}/{repo}/api/v1/ and return JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sprintdash/internal/ci"
	"sprintdash/internal/database"
	"sprintdash/internal/tracker"
	"sprintdash/internal/util"
)

// HealthReader is the CI surface the board endpoint consumes.
type HealthReader interface {
	GetHealth(ctx context.Context, owner, repo string) *ci.Health
}

// Server handles HTTP requests against the sprint store. Tracker and CI
// are optional: without them the board endpoint is unavailable but the
// store API works.
type Server struct {
	Router  *chi.Mux
	db      *database.Database
	tracker tracker.IssueReader
	ci      HealthReader
}

// New builds a Server around the shared database. reader and health may be
// nil.
func New(db *database.Database, reader tracker.IssueReader, health HealthReader) *Server {
	s := &Server{db: db, tracker: reader, ci: health}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.healthCheck)

	r.Route("/{owner}/{repo}/api/v1", func(r chi.Router) {
		r.Get("/sprints", s.listSprints)
		r.Post("/sprints", s.createSprint)
		r.Get("/sprints/current", s.currentSprint)
		r.Get("/sprints/{n}", s.getSprint)
		r.Put("/sprints/{n}", s.updateSprint)
		r.Post("/sprints/{n}/start", s.startSprint)
		r.Post("/sprints/{n}/close", s.closeSprint)
		r.Post("/sprints/{n}/cancel", s.cancelSprint)
		r.Get("/sprints/{n}/issues", s.listIssues)
		r.Post("/sprints/{n}/issues", s.addIssues)
		r.Delete("/sprints/{n}/issues/{issue}", s.removeIssue)
		r.Post("/issues/move", s.moveIssues)
		r.Get("/board", s.board)
	})

	s.Router = r
}

// ListenAndServe starts the server on addr.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) store(r *http.Request) *database.Store {
	return database.NewStore(s.db, chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	util.LogError("write response", json.NewEncoder(w).Encode(v))
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Added []int  `json:"added,omitempty"`
	Moved []int  `json:"moved,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

// writeStoreError maps the store's error taxonomy onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, database.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, database.ErrLifecycle):
		writeError(w, http.StatusBadRequest, "lifecycle_error", err.Error())
	case errors.Is(err, database.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		util.LogError("unhandled API error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// decodeBody parses the JSON request body into v. An empty body is
// treated as an empty object so endpoints with optional bodies work
// without one.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body: "+err.Error())
	return false
}

// validDate reports whether v is a real YYYY-MM-DD date.
func validDate(v string) bool {
	_, err := time.Parse("2006-01-02", v)
	return err == nil
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// dedupe preserves first-occurrence order.
func dedupe(nums []int) []int {
	seen := make(map[int]bool, len(nums))
	out := nums[:0:0]
	for _, n := range nums {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
