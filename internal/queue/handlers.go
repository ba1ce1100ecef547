package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/medalchat/internal/queue/workers"
)

// NewServeMux routes every task type the worker process consumes.
func NewServeMux(audits workers.AuditRecorder) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(logTasks)
	mux.Handle(TypeQueryAudit, asynq.HandlerFunc(workers.NewAuditWorker(audits).ProcessTask))
	return mux
}

func logTasks(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, t)
		if err != nil {
			slog.Warn("task failed", "type", t.Type(), "duration_ms", time.Since(start).Milliseconds(), "error", err)
			return err
		}
		slog.Debug("task done", "type", t.Type(), "duration_ms", time.Since(start).Milliseconds())
		return nil
	})
}
