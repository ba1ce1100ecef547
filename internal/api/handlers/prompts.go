package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/nikhilbhutani/medalchat/internal/models"
	"github.com/nikhilbhutani/medalchat/internal/prompt"
)

type PromptAdmin interface {
	List(ctx context.Context) ([]models.PromptConfig, error)
	Create(ctx context.Context, req prompt.CreateRequest) (*models.PromptConfig, error)
	Update(ctx context.Context, id int64, req prompt.UpdateRequest) (*models.PromptConfig, error)
}

// PromptInvalidator drops cached active prompts after a write.
type PromptInvalidator interface {
	Invalidate(ctx context.Context, contextKeys ...string)
}

type PromptHandler struct {
	store PromptAdmin
	cache PromptInvalidator
}

func NewPromptHandler(store PromptAdmin, cache PromptInvalidator) *PromptHandler {
	return &PromptHandler{store: store, cache: cache}
}

func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req prompt.CreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.store.Create(r.Context(), req)
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.invalidate(r.Context(), p.ContextKey)
	writeJSON(w, http.StatusCreated, p)
}

func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req prompt.UpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SystemPrompt == nil && req.Active == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	p, err := h.store.Update(r.Context(), id, req)
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.invalidate(r.Context(), p.ContextKey)
	writeJSON(w, http.StatusOK, p)
}

func (h *PromptHandler) invalidate(ctx context.Context, key string) {
	if h.cache != nil {
		h.cache.Invalidate(ctx, key)
	}
}

func (h *PromptHandler) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, prompt.ErrInvalidPrompt):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, prompt.ErrNotFound):
		writeError(w, http.StatusNotFound, "prompt configuration not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
