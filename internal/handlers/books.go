package handlers

// File: internal/handlers/books.go
// Purpose: /api/books handlers. Not-found responses carry no body.

import (
	"fmt"
	"net/http"

	"shelfsim-api-go/internal/apperr"
	"shelfsim-api-go/internal/models"
	"shelfsim-api-go/internal/services"
)

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", services.DefaultBookPageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	books, err := h.books.List(r.Context(), models.BookQuery{
		Search:   r.URL.Query().Get("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	book, err := h.books.Get(r.Context(), id)
	if err != nil {
		h.writeBookError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	var req models.BookRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	book, err := h.books.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/books/%d", book.ID))
	writeJSON(w, http.StatusCreated, book)
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.BookRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.books.Update(r.Context(), id, req); err != nil {
		h.writeBookError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.books.Delete(r.Context(), id); err != nil {
		h.writeBookError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeBookError(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.IsNotFound(err) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.writeError(w, r, err)
}
