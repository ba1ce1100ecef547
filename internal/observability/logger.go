package observability

import (
	"context"
	"io"
	"log/slog"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

// NewLogger builds the process logger. JSON output matches what the log
// shipper expects; level comes from configuration.
func NewLogger(level slog.Level, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("service", "medalchat"))
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	value, ok := ctx.Value(traceIDKey).(string)
	if !ok {
		return ""
	}
	return value
}
