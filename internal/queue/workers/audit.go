package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/medalchat/internal/models"
)

type AuditRecorder interface {
	Record(ctx context.Context, rec models.QueryAudit) error
}

// AuditWorker persists audit records enqueued by the API.
type AuditWorker struct {
	recorder AuditRecorder
}

func NewAuditWorker(r AuditRecorder) *AuditWorker {
	return &AuditWorker{recorder: r}
}

func (w *AuditWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var rec models.QueryAudit
	if err := json.Unmarshal(t.Payload(), &rec); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := w.recorder.Record(ctx, rec); err != nil {
		return fmt.Errorf("record audit %s: %w", rec.TraceID, err)
	}

	slog.Debug("audit recorded", "trace_id", rec.TraceID, "stage", rec.Stage)
	return nil
}
