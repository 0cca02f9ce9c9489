package observability

import (
	"context"
	"log/slog"
	"os"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyCallSID   ctxKey = "call_sid"
)

// basic global logger, JSON to stdout.
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

func Logger() *slog.Logger {
	return logger
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return logger.With(kv...)
}

// WithRequestID stores a request_id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// WithCallSID stores the call SID in the context so every log line from one
// webhook cycle carries it.
func WithCallSID(ctx context.Context, callSID string) context.Context {
	return context.WithValue(ctx, ctxKeyCallSID, callSID)
}

// LoggerFromContext adds request_id and call_sid if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	log := logger
	if reqID, _ := ctx.Value(ctxKeyRequestID).(string); reqID != "" {
		log = log.With("request_id", reqID)
	}
	if sid, _ := ctx.Value(ctxKeyCallSID).(string); sid != "" {
		log = log.With("call_sid", sid)
	}
	return log
}
