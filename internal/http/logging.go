package http

import (
	"context"
	"log/slog"

	"github.com/example/cleanops-scheduler/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger scopes the request logger, or fallback outside a request, to
// one handler operation.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	return logging.Scoped(logging.FromContextOr(ctx, fallback), "handler", handlerName, operation, attrs...)
}
