package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/medalchat/internal/models"
)

type memRecorder struct {
	got []models.QueryAudit
	err error
}

func (m *memRecorder) Record(_ context.Context, rec models.QueryAudit) error {
	m.got = append(m.got, rec)
	return m.err
}

func TestServeMuxRoutesAuditTasks(t *testing.T) {
	rec := &memRecorder{}
	mux := NewServeMux(rec)

	want := models.QueryAudit{TraceID: uuid.New(), UserID: 4, Question: "Medals by gender", Stage: "done", RowCount: 2}
	payload, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}

	if err := mux.ProcessTask(context.Background(), asynq.NewTask(TypeQueryAudit, payload)); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if len(rec.got) != 1 || rec.got[0].TraceID != want.TraceID || rec.got[0].RowCount != 2 {
		t.Fatalf("recorded = %+v", rec.got)
	}
}

func TestServeMuxPropagatesFailures(t *testing.T) {
	rec := &memRecorder{err: errors.New("db down")}
	mux := NewServeMux(rec)

	payload, _ := json.Marshal(models.QueryAudit{TraceID: uuid.New(), Stage: "done"})
	if err := mux.ProcessTask(context.Background(), asynq.NewTask(TypeQueryAudit, payload)); err == nil {
		t.Fatal("expected record failure to surface for retry")
	}
	if err := mux.ProcessTask(context.Background(), asynq.NewTask("query:unknown", nil)); err == nil {
		t.Fatal("expected unknown task type to fail")
	}
}
