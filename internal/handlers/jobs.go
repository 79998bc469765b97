package handlers

// File: internal/handlers/jobs.go
// Purpose: /api/jobs handlers.

import (
	"net/http"
	"strconv"

	"shelfsim-api-go/internal/apperr"
	"shelfsim-api-go/internal/models"
)

func (h *Handler) createJobsBatch(w http.ResponseWriter, r *http.Request) {
	var req models.CreateJobsBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.jobs.CreateBatch(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// listJobs treats a missing runId as run 0, which matches nothing.
func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	var runID int64
	if raw := r.URL.Query().Get("runId"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(w, r, apperr.BadRequest("invalid runId: "+raw))
			return
		}
		runID = v
	}
	jobs, err := h.jobs.ListByRun(r.Context(), runID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) recordJobResult(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var patch models.JobResultPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.jobs.RecordResult(r.Context(), id, patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
