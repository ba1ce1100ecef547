package models

import (
	"time"

	"github.com/google/uuid"
)

// QueryAudit records one pipeline invocation.
type QueryAudit struct {
	TraceID        uuid.UUID `json:"trace_id" db:"trace_id"`
	UserID         int64     `json:"user_id" db:"usuario_id"`
	ConversationID *int64    `json:"conversation_id,omitempty" db:"conversacion_id"`
	Question       string    `json:"question" db:"pregunta"`
	Stage          string    `json:"stage" db:"etapa"`
	SQLUsed        *string   `json:"sql_used,omitempty" db:"consulta_sql"`
	Rejected       bool      `json:"rejected" db:"rechazada"`
	UsedFallback   bool      `json:"used_fallback" db:"uso_fallback"`
	RowCount       int       `json:"row_count" db:"total_filas"`
	LatencyMs      int64     `json:"latency_ms" db:"latencia_ms"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
