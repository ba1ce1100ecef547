package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/medalchat/internal/models"
)

type fakeRecorder struct {
	got []models.QueryAudit
	err error
}

func (f *fakeRecorder) Record(_ context.Context, rec models.QueryAudit) error {
	f.got = append(f.got, rec)
	return f.err
}

func TestAuditWorkerRecordsPayload(t *testing.T) {
	sql := "SELECT 1 FROM medallas_olimpicas"
	want := models.QueryAudit{
		TraceID:  uuid.New(),
		UserID:   7,
		Question: "How many gold medals did Brazil win?",
		Stage:    "done",
		SQLUsed:  &sql,
		RowCount: 1,
	}
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}

	rec := &fakeRecorder{}
	if err := NewAuditWorker(rec).ProcessTask(context.Background(), asynq.NewTask("query:audit", data)); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if len(rec.got) != 1 {
		t.Fatalf("recorded %d records, want 1", len(rec.got))
	}
	got := rec.got[0]
	if got.TraceID != want.TraceID || got.UserID != 7 || got.Stage != "done" || got.SQLUsed == nil || *got.SQLUsed != sql {
		t.Fatalf("recorded %+v", got)
	}
}

func TestAuditWorkerSkipsRetryOnBadPayload(t *testing.T) {
	rec := &fakeRecorder{}
	err := NewAuditWorker(rec).ProcessTask(context.Background(), asynq.NewTask("query:audit", []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
	if len(rec.got) != 0 {
		t.Fatal("malformed payload reached the recorder")
	}
}

func TestAuditWorkerReturnsRecorderError(t *testing.T) {
	boom := errors.New("db down")
	rec := &fakeRecorder{err: boom}
	data, _ := json.Marshal(models.QueryAudit{TraceID: uuid.New()})

	err := NewAuditWorker(rec).ProcessTask(context.Background(), asynq.NewTask("query:audit", data))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped recorder error", err)
	}
}
