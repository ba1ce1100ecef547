package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nikhilbhutani/medalchat/internal/memory"
	"github.com/nikhilbhutani/medalchat/internal/models"
	"github.com/nikhilbhutani/medalchat/internal/sqlexec"
)

// DetailsSampleSize is how many rows the details view returns.
const DetailsSampleSize = 10

type MessageSource interface {
	AssistantMessage(ctx context.Context, userID, messageID int64) (*models.Message, error)
}

type Executor interface {
	Execute(ctx context.Context, statement string) ([]sqlexec.Row, error)
}

type DataHandler struct {
	messages MessageSource
	exec     Executor
	logger   *slog.Logger
}

func NewDataHandler(messages MessageSource, exec Executor) *DataHandler {
	return &DataHandler{
		messages: messages,
		exec:     exec,
		logger:   slog.Default().With("component", "data_details"),
	}
}

type detailsResponse struct {
	MessageID  int64         `json:"mensaje_id"`
	SQL        *string       `json:"consulta_sql"`
	Timestamp  time.Time     `json:"timestamp"`
	Available  bool          `json:"datos_disponibles"`
	TotalRows  *int          `json:"total_resultados,omitempty"`
	SampleRows []sqlexec.Row `json:"muestra_datos,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Details re-runs the statement stored with one of the caller's answers.
func (h *DataHandler) Details(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "mensaje_id")
	if !ok {
		return
	}

	msg, err := h.messages.AssistantMessage(r.Context(), user.ID, id)
	if errors.Is(err, memory.ErrMessageNotFound) {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := detailsResponse{MessageID: msg.ID, SQL: msg.SQLExecuted, Timestamp: msg.CreatedAt}
	if msg.SQLExecuted == nil || *msg.SQLExecuted == "" {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	rows, err := h.exec.Execute(r.Context(), *msg.SQLExecuted)
	if err != nil {
		h.logger.Warn("details query failed", "message_id", id, "error", err)
		resp.Error = "data is not available right now"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	total := len(rows)
	resp.Available = true
	resp.TotalRows = &total
	resp.SampleRows = rows[:min(total, DetailsSampleSize)]
	writeJSON(w, http.StatusOK, resp)
}
