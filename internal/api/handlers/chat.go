package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nikhilbhutani/medalchat/internal/identity"
	"github.com/nikhilbhutani/medalchat/internal/memory"
	"github.com/nikhilbhutani/medalchat/internal/models"
	"github.com/nikhilbhutani/medalchat/internal/pipeline"
)

type Asker interface {
	AnswerQuestion(ctx context.Context, user identity.User, question string, conversationID *int64, history []models.Turn, opts ...pipeline.AskOption) pipeline.Outcome
}

// ChatStore is the conversation persistence the chat endpoint needs.
type ChatStore interface {
	CreateConversation(ctx context.Context, userID int64, title string) (*models.Conversation, error)
	GetConversation(ctx context.Context, userID, id int64) (*models.Conversation, error)
	RecentTurns(ctx context.Context, conversationID int64, limit int) ([]models.Turn, error)
	AppendExchange(ctx context.Context, conversationID int64, question, answer string, sqlUsed *string) (int64, error)
}

type ChatHandler struct {
	asker        Asker
	store        ChatStore
	historyLimit int
	logger       *slog.Logger
}

func NewChatHandler(asker Asker, store ChatStore, historyLimit int) *ChatHandler {
	return &ChatHandler{
		asker:        asker,
		store:        store,
		historyLimit: historyLimit,
		logger:       slog.Default().With("component", "chat"),
	}
}

type chatRequest struct {
	Question       string `json:"pregunta"`
	ConversationID *int64 `json:"id_conversacion,omitempty"`
	Context        string `json:"contexto,omitempty"`
}

type chatResponse struct {
	Answer         string                   `json:"respuesta"`
	SQLUsed        *string                  `json:"consulta_sql"`
	ConversationID int64                    `json:"id_conversacion"`
	MessageID      *int64                   `json:"id_mensaje"`
	Context        *pipeline.ContextPayload `json:"datos_contexto"`
	Error          bool                     `json:"error"`
	TraceID        string                   `json:"trace_id"`
}

// Ask answers one question inside a conversation, creating the
// conversation when the request names none.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "pregunta required")
		return
	}

	ctx := r.Context()
	var conv *models.Conversation
	var err error
	if req.ConversationID != nil {
		conv, err = h.store.GetConversation(ctx, user.ID, *req.ConversationID)
		if errors.Is(err, memory.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
	} else {
		conv, err = h.store.CreateConversation(ctx, user.ID, memory.ConversationTitle(req.Question))
	}
	if err != nil {
		h.logger.Error("conversation lookup failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not open conversation")
		return
	}

	history, err := h.store.RecentTurns(ctx, conv.ID, h.historyLimit)
	if err != nil {
		h.logger.Warn("history unavailable, answering without it", "conversation_id", conv.ID, "error", err)
		history = nil
	}

	var opts []pipeline.AskOption
	if req.Context != "" {
		opts = append(opts, pipeline.WithPromptContext(req.Context))
	}
	out := h.asker.AnswerQuestion(ctx, user, req.Question, &conv.ID, history, opts...)

	resp := chatResponse{
		Answer:         out.Answer,
		SQLUsed:        out.SQLUsed,
		ConversationID: conv.ID,
		Context:        out.Context,
		Error:          out.Failed(),
		TraceID:        out.TraceID,
	}

	msgID, err := h.store.AppendExchange(ctx, conv.ID, req.Question, out.Answer, out.SQLUsed)
	if err != nil {
		h.logger.Error("storing exchange failed", "conversation_id", conv.ID, "trace_id", out.TraceID, "error", err)
	} else {
		resp.MessageID = &msgID
	}

	writeJSON(w, http.StatusOK, resp)
}
