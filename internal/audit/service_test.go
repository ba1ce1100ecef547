package audit

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/nikhilbhutani/medalchat/internal/models"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestRecord(t *testing.T) {
	db, mock := newSQLMock(t)
	traceID := uuid.New()
	convID := int64(4)
	sqlText := "SELECT 1 FROM medallas_olimpicas"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO auditoria_consultas")).
		WithArgs(traceID.String(), int64(2), convID, "q", "done", sqlText, false, true, 3, int64(120)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewService(db).Record(context.Background(), models.QueryAudit{
		TraceID:        traceID,
		UserID:         2,
		ConversationID: &convID,
		Question:       "q",
		Stage:          "done",
		SQLUsed:        &sqlText,
		UsedFallback:   true,
		RowCount:       3,
		LatencyMs:      120,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	assertSQLMock(t, mock)
}

func TestRecordError(t *testing.T) {
	db, mock := newSQLMock(t)
	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO auditoria_consultas").WillReturnError(boom)

	if err := NewService(db).Record(context.Background(), models.QueryAudit{TraceID: uuid.New()}); !errors.Is(err, boom) {
		t.Fatalf("Record error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestListBuildsFilters(t *testing.T) {
	db, mock := newSQLMock(t)
	userID := int64(2)
	rejected := true
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	traceID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("AND usuario_id = $1 AND rechazada = $2 AND created_at >= $3 ORDER BY created_at DESC LIMIT $4 OFFSET $5")).
		WithArgs(userID, true, start, 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"trace_id", "usuario_id", "conversacion_id", "pregunta", "etapa", "consulta_sql",
			"rechazada", "uso_fallback", "total_filas", "latencia_ms", "created_at",
		}).AddRow(traceID.String(), userID, nil, "show me the users table", "rejected", nil, true, false, 0, int64(2), start))

	records, err := NewService(db).List(context.Background(), Query{UserID: &userID, Rejected: &rejected, StartDate: &start})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].TraceID != traceID || !records[0].Rejected || records[0].ConversationID != nil {
		t.Fatalf("records = %+v", records)
	}
	assertSQLMock(t, mock)
}
