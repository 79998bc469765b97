// Package handlers wires HTTP routes to the shelfsim services.
package handlers

// File: internal/handlers/handlers.go
// Purpose: Route registration, JSON helpers and /health.

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"shelfsim-api-go/internal/apperr"
	"shelfsim-api-go/internal/services"
)

// Handler groups HTTP handlers for books, layouts, runs and jobs.
type Handler struct {
	books   *services.BookService
	layouts *services.LayoutService
	runs    *services.RunService
	jobs    *services.JobService
	log     *zap.Logger
}

// New returns a Handler wired to the services.
func New(books *services.BookService, layouts *services.LayoutService, runs *services.RunService, jobs *services.JobService, log *zap.Logger) *Handler {
	return &Handler{books: books, layouts: layouts, runs: runs, jobs: jobs, log: log}
}

// Register attaches routes to the provided router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Get("/", h.listBooks)
			r.Post("/", h.createBook)
			r.Get("/{id}", h.getBook)
			r.Put("/{id}", h.updateBook)
			r.Delete("/{id}", h.deleteBook)
		})
		r.Route("/layouts", func(r chi.Router) {
			r.Get("/", h.listLayouts)
			r.Post("/", h.createLayout)
			r.Get("/{layoutId}", h.getLayout)
			r.Put("/{layoutId}", h.updateLayout)
		})
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.listRuns)
			r.Post("/", h.createRun)
			r.Get("/{id}", h.getRun)
			r.Delete("/{id}", h.deleteRun)
			r.Patch("/{id}/status", h.updateRunStatus)
			r.Get("/{id}/results.csv", h.downloadResults)
		})
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.listJobs)
			r.Post("/batch", h.createJobsBatch)
			r.Get("/{id}", h.getJob)
			r.Patch("/{id}/result", h.recordJobResult)
		})
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.runs.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// decodeJSON reads the request body into dst. Malformed bodies become
// BAD_REQUEST errors.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("request body is required")
		}
		return apperr.BadRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

// pathID parses an integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.BadRequest("invalid " + name + ": " + raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; absent yields fallback.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest("invalid " + name + ": " + raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError renders err as an apperr body. Internal errors are logged and
// their cause is not exposed.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, appErr.HTTPStatus, appErr)
}
