package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/nikhilbhutani/medalchat/internal/filters"
	"github.com/nikhilbhutani/medalchat/internal/models"
)

type TermStore interface {
	List(ctx context.Context, userID int64) ([]models.ExcludedTerm, error)
	Add(ctx context.Context, userID int64, term string) (*models.ExcludedTerm, error)
	Deactivate(ctx context.Context, userID, id int64) error
}

type FilterHandler struct {
	terms TermStore
}

func NewFilterHandler(terms TermStore) *FilterHandler {
	return &FilterHandler{terms: terms}
}

func (h *FilterHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	terms, err := h.terms.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, terms)
}

func (h *FilterHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Term string `json:"termino"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	term, err := h.terms.Add(r.Context(), user.ID, req.Term)
	switch {
	case errors.Is(err, filters.ErrInvalidTerm):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, filters.ErrDuplicateTerm):
		writeError(w, http.StatusConflict, "term already excluded")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusCreated, term)
	}
}

func (h *FilterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	err := h.terms.Deactivate(r.Context(), user.ID, id)
	switch {
	case errors.Is(err, filters.ErrTermNotFound):
		writeError(w, http.StatusNotFound, "excluded term not found")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
