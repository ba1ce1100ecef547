package handlers

import (
	"net/http"
	"strings"

	"github.com/nikhilbhutani/medalchat/internal/guardrails"
)

type GuardrailHandler struct {
	engine *guardrails.Engine
}

func NewGuardrailHandler(engine *guardrails.Engine) *GuardrailHandler {
	return &GuardrailHandler{engine: engine}
}

// Check classifies a question without running it.
func (h *GuardrailHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"pregunta"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "pregunta required")
		return
	}

	writeJSON(w, http.StatusOK, h.engine.Classify(req.Question))
}
