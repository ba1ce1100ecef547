// Package audit stores one record per pipeline invocation and serves
// filtered views of them to administrators.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nikhilbhutani/medalchat/internal/models"
)

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Record inserts a. A record already stored under the same trace ID is left
// untouched, so redelivered tasks are harmless.
func (s *Service) Record(ctx context.Context, a models.QueryAudit) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO auditoria_consultas
		     (trace_id, usuario_id, conversacion_id, pregunta, etapa, consulta_sql,
		      rechazada, uso_fallback, total_filas, latencia_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (trace_id) DO NOTHING`,
		a.TraceID.String(), a.UserID, a.ConversationID, a.Question, a.Stage, a.SQLUsed,
		a.Rejected, a.UsedFallback, a.RowCount, a.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("insert query audit: %w", err)
	}
	return nil
}

type Query struct {
	UserID    *int64
	Stage     string
	Rejected  *bool
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

func (s *Service) List(ctx context.Context, q Query) ([]models.QueryAudit, error) {
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 50
	}

	query := `SELECT trace_id, usuario_id, conversacion_id, pregunta, etapa, consulta_sql,
	                 rechazada, uso_fallback, total_filas, latencia_ms, created_at
	          FROM auditoria_consultas WHERE TRUE`
	var args []any
	argIdx := 1

	if q.UserID != nil {
		query += fmt.Sprintf(" AND usuario_id = $%d", argIdx)
		args = append(args, *q.UserID)
		argIdx++
	}
	if q.Stage != "" {
		query += fmt.Sprintf(" AND etapa = $%d", argIdx)
		args = append(args, q.Stage)
		argIdx++
	}
	if q.Rejected != nil {
		query += fmt.Sprintf(" AND rechazada = $%d", argIdx)
		args = append(args, *q.Rejected)
		argIdx++
	}
	if q.StartDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *q.StartDate)
		argIdx++
	}
	if q.EndDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *q.EndDate)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	out := []models.QueryAudit{}
	for rows.Next() {
		var a models.QueryAudit
		if err := rows.Scan(&a.TraceID, &a.UserID, &a.ConversationID, &a.Question, &a.Stage, &a.SQLUsed,
			&a.Rejected, &a.UsedFallback, &a.RowCount, &a.LatencyMs, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type StageSummary struct {
	Stage        string  `json:"etapa"`
	Total        int     `json:"total"`
	Fallbacks    int     `json:"fallbacks"`
	AvgLatencyMs float64 `json:"latencia_promedio_ms"`
}

// Summary groups records by final stage over an optional time window.
func (s *Service) Summary(ctx context.Context, startDate, endDate *time.Time) ([]StageSummary, error) {
	query := `SELECT etapa, COUNT(*) AS total,
	                 COUNT(*) FILTER (WHERE uso_fallback) AS fallbacks,
	                 COALESCE(AVG(latencia_ms), 0)::float8 AS avg_latency
	          FROM auditoria_consultas WHERE TRUE`
	var args []any
	argIdx := 1

	if startDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *startDate)
		argIdx++
	}
	if endDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *endDate)
	}

	query += " GROUP BY etapa ORDER BY total DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit summary: %w", err)
	}
	defer rows.Close()

	out := []StageSummary{}
	for rows.Next() {
		var ss StageSummary
		if err := rows.Scan(&ss.Stage, &ss.Total, &ss.Fallbacks, &ss.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan audit summary: %w", err)
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}
