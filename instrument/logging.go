package instrument

import (
	"context"
	"log/slog"
	"time"

	"github.com/graphql-go/graphql"
)

// Logging writes one structured record per execution.
type Logging struct {
	logger *slog.Logger
}

// NewLogging creates a logging instrumentation. A nil logger uses slog.Default().
func NewLogging(logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{logger: logger.With("component", "execution")}
}

// BeginExecution implements Instrumentation
func (l *Logging) BeginExecution(ctx context.Context, op Operation) (context.Context, EndFunc) {
	logger := l.logger.With("request_id", op.RequestID)
	if op.OperationName != "" {
		logger = logger.With("operation", op.OperationName)
	}
	logger.DebugContext(ctx, "Execution started")

	started := op.Started
	if started.IsZero() {
		started = time.Now()
	}
	return ctx, func(result *graphql.Result) {
		errs := 0
		if result != nil {
			errs = len(result.Errors)
		}
		duration := time.Since(started)
		if errs > 0 {
			logger.WarnContext(ctx, "Execution finished with errors",
				"errors", errs, "first_error", result.Errors[0].Message, "duration", duration)
			return
		}
		logger.InfoContext(ctx, "Execution finished", "duration", duration)
	}
}
