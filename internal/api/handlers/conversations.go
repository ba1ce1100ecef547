package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nikhilbhutani/medalchat/internal/memory"
	"github.com/nikhilbhutani/medalchat/internal/models"
)

type ConversationStore interface {
	CreateConversation(ctx context.Context, userID int64, title string) (*models.Conversation, error)
	GetConversation(ctx context.Context, userID, id int64) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID int64, limit, offset int) ([]models.Conversation, error)
	RenameConversation(ctx context.Context, userID, id int64, title string) error
	DeleteConversation(ctx context.Context, userID, id int64) error
	Messages(ctx context.Context, userID, conversationID int64) ([]models.Message, error)
	Stats(ctx context.Context, userID int64) (*memory.Stats, error)
}

type ConversationHandler struct {
	store ConversationStore
}

func NewConversationHandler(store ConversationStore) *ConversationHandler {
	return &ConversationHandler{store: store}
}

type titleRequest struct {
	Title string `json:"titulo"`
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req titleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Nueva conversación"
	}

	c, err := h.store.CreateConversation(r.Context(), user.ID, title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)

	convs, err := h.store.ListConversations(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conversaciones": convs, "count": len(convs)})
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	c, err := h.store.GetConversation(r.Context(), user.ID, id)
	if err != nil {
		h.storeError(w, err)
		return
	}
	msgs, err := h.store.Messages(r.Context(), user.ID, id)
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conversacion": c, "mensajes": msgs})
}

func (h *ConversationHandler) Rename(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req titleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "titulo required")
		return
	}

	if err := h.store.RenameConversation(r.Context(), user.ID, id, title); err != nil {
		h.storeError(w, err)
		return
	}
	c, err := h.store.GetConversation(r.Context(), user.ID, id)
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteConversation(r.Context(), user.ID, id); err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ConversationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	st, err := h.store.Stats(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *ConversationHandler) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, memory.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
