package trigger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/cleanops-scheduler/internal/application"
	"github.com/example/cleanops-scheduler/internal/logging"
)

// Processor runs one batch pass over due definitions.
type Processor interface {
	ProcessDue(ctx context.Context, now time.Time) (application.ProcessResult, error)
}

// Runner executes guarded batch passes and reports their outcome.
type Runner struct {
	processor Processor
	guard     Guard
	now       func() time.Time
	logger    *slog.Logger
}

// NewRunner constructs a runner. A nil guard uses a LocalGuard.
func NewRunner(processor Processor, guard Guard, now func() time.Time, logger *slog.Logger) *Runner {
	if guard == nil {
		guard = NewLocalGuard()
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{processor: processor, guard: guard, now: now, logger: logger}
}

// RunOnce performs a single pass with the current time. It returns
// ErrRunInProgress without processing when another pass holds the guard.
// Per-definition failures are reported in the result, not as an error.
func (r *Runner) RunOnce(ctx context.Context) (result application.ProcessResult, err error) {
	runID := uuid.NewString()
	logger := logging.FromContextOr(ctx, r.logger).With("component", "trigger", "run_id", runID)
	ctx = logging.ContextWithLogger(ctx, logger)

	release, err := r.guard.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			logger.WarnContext(ctx, "batch pass skipped", "reason", "run in progress")
		} else {
			logger.ErrorContext(ctx, "failed to acquire run guard", "error", err)
		}
		return application.ProcessResult{}, err
	}
	defer release()

	started := r.now()
	result, err = r.processor.ProcessDue(ctx, started)
	duration := r.now().Sub(started)
	if err != nil {
		logger.ErrorContext(ctx, "batch pass failed", "error", err, "error_kind", application.ErrorKind(err), "duration", duration)
		return result, err
	}

	for _, failure := range result.Failed {
		logger.ErrorContext(ctx, "definition failed during batch pass",
			"definition_id", failure.DefinitionID,
			"error", failure.Err,
			"error_kind", application.ErrorKind(failure.Err),
		)
	}
	level := slog.LevelInfo
	if result.HasFailures() {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "batch pass completed",
		"materialized", len(result.Materialized),
		"advanced", len(result.Advanced),
		"deactivated", len(result.Deactivated),
		"failed", len(result.Failed),
		"duration", duration,
	)
	return result, nil
}
