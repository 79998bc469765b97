package handlers

// File: internal/handlers/layouts.go
// Purpose: /api/layouts handlers.

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"shelfsim-api-go/internal/models"
)

func (h *Handler) listLayouts(w http.ResponseWriter, r *http.Request) {
	list, err := h.layouts.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getLayout(w http.ResponseWriter, r *http.Request) {
	layout, err := h.layouts.Get(r.Context(), chi.URLParam(r, "layoutId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (h *Handler) createLayout(w http.ResponseWriter, r *http.Request) {
	var req models.LayoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.layouts.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/layouts/"+url.PathEscape(summary.LayoutID))
	writeJSON(w, http.StatusCreated, summary)
}

func (h *Handler) updateLayout(w http.ResponseWriter, r *http.Request) {
	var req models.LayoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.layouts.Update(r.Context(), chi.URLParam(r, "layoutId"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
