package handlers

import (
	"context"
	"net/http"

	"github.com/nikhilbhutani/medalchat/internal/models"
)

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type UserHandler struct {
	users UserReader
}

func NewUserHandler(users UserReader) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the caller's profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	u, err := h.users.GetByID(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
