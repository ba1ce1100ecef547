package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/nikhilbhutani/medalchat/internal/audit"
	"github.com/nikhilbhutani/medalchat/internal/llm"
	"github.com/nikhilbhutani/medalchat/internal/models"
)

type AuditReader interface {
	List(ctx context.Context, q audit.Query) ([]models.QueryAudit, error)
	Summary(ctx context.Context, startDate, endDate *time.Time) ([]audit.StageSummary, error)
}

type AdminHandler struct {
	audit   AuditReader
	gateway llm.Gateway
}

func NewAdminHandler(auditReader AuditReader, gw llm.Gateway) *AdminHandler {
	return &AdminHandler{audit: auditReader, gateway: gw}
}

func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	q := audit.Query{Stage: r.URL.Query().Get("etapa")}
	q.Limit, q.Offset = pageParams(r)
	q.StartDate, q.EndDate = dateRange(r)

	if s := r.URL.Query().Get("usuario_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid usuario_id")
			return
		}
		q.UserID = &id
	}
	if s := r.URL.Query().Get("rechazada"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid rechazada")
			return
		}
		q.Rejected = &b
	}

	records, err := h.audit.List(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"audit_logs": records, "count": len(records)})
}

func (h *AdminHandler) AuditSummary(w http.ResponseWriter, r *http.Request) {
	startDate, endDate := dateRange(r)
	summary, err := h.audit.Summary(r.Context(), startDate, endDate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})
}

// Models lists the models of every configured LLM provider.
func (h *AdminHandler) Models(w http.ResponseWriter, r *http.Request) {
	var list []llm.ModelInfo
	if h.gateway != nil {
		list = h.gateway.ListModels()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": list})
}

func dateRange(r *http.Request) (start, end *time.Time) {
	if s := r.URL.Query().Get("start_date"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			start = &t
		}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			end = &t
		}
	}
	return start, end
}
