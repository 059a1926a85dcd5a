package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleOff disables the cron trigger.
const ScheduleOff = "off"

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether expr is a five-field cron expression, a
// descriptor such as @hourly, or ScheduleOff.
func ValidateSchedule(expr string) error {
	expr = strings.TrimSpace(expr)
	if strings.EqualFold(expr, ScheduleOff) {
		return nil
	}
	if _, err := scheduleParser.Parse(expr); err != nil {
		return fmt.Errorf("trigger: invalid schedule %q: %w", expr, err)
	}
	return nil
}

// Scheduler invokes a Runner on a cron schedule.
type Scheduler struct {
	mu      sync.Mutex
	runner  *Runner
	expr    string
	loc     *time.Location
	timeout time.Duration
	logger  *slog.Logger
	c       *cron.Cron
	cancel  context.CancelFunc
}

// NewScheduler constructs a scheduler that evaluates expr in loc. Each pass
// is bounded by timeout when positive.
func NewScheduler(runner *Runner, expr string, loc *time.Location, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("trigger: runner is required")
	}
	if err := ValidateSchedule(expr); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:  runner,
		expr:    strings.TrimSpace(expr),
		loc:     loc,
		timeout: timeout,
		logger:  logger.With("component", "trigger_scheduler"),
	}, nil
}

// Enabled reports whether the schedule is not ScheduleOff.
func (s *Scheduler) Enabled() bool {
	return !strings.EqualFold(s.expr, ScheduleOff)
}

// Start registers the pass and starts the cron loop. It is a no-op when the
// schedule is off or the scheduler already runs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil || !s.Enabled() {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithParser(scheduleParser), cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.expr, func() { s.fire(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("trigger: register schedule: %w", err)
	}

	s.c = c
	s.cancel = cancel
	c.Start()
	s.logger.Info("batch trigger scheduled", "schedule", s.expr, "tz", s.loc.String())
	return nil
}

// Stop halts the cron loop and waits for a running pass to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.c, s.cancel
	s.c, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	done := c.Stop().Done()
	select {
	case <-done:
		cancel()
		s.logger.Info("batch trigger stopped")
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	// Outcomes are logged by the runner.
	_, _ = s.runner.RunOnce(ctx)
}
