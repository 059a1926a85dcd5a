package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/cleanops-scheduler/internal/application"
	"github.com/example/cleanops-scheduler/internal/persistence"
	"github.com/example/cleanops-scheduler/internal/persistence/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProcessor struct {
	calls   atomic.Int32
	result  application.ProcessResult
	err     error
	block   chan struct{}
	started chan struct{}
	nows    []time.Time
	mu      sync.Mutex
}

func (p *stubProcessor) ProcessDue(ctx context.Context, now time.Time) (application.ProcessResult, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.nows = append(p.nows, now)
	p.mu.Unlock()
	if p.started != nil {
		select {
		case p.started <- struct{}{}:
		default:
		}
	}
	if p.block != nil {
		<-p.block
	}
	return p.result, p.err
}

func TestLocalGuard(t *testing.T) {
	t.Parallel()

	guard := NewLocalGuard()
	release, err := guard.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected first acquire to succeed, got %v", err)
	}
	if _, err := guard.Acquire(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	release()
	release, err = guard.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected acquire after release to succeed, got %v", err)
	}
	release()
}

func TestLeaseGuard(t *testing.T) {
	t.Parallel()

	store := memory.Open()
	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	first := NewLeaseGuard(store, "", time.Minute, clock)
	second := NewLeaseGuard(store, "", time.Minute, clock)
	if first.Holder() == second.Holder() || first.Holder() == "" {
		t.Fatalf("expected distinct random holders, got %q and %q", first.Holder(), second.Holder())
	}

	release, err := first.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected first guard to acquire, got %v", err)
	}
	if _, err := second.Acquire(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected second guard to be refused, got %v", err)
	}
	release()

	release, err = second.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected second guard to acquire after release, got %v", err)
	}
	release()
}

func TestChainGuardReleasesOnPartialFailure(t *testing.T) {
	t.Parallel()

	local := NewLocalGuard()
	busy := NewLocalGuard()
	holdBusy, err := busy.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire busy guard: %v", err)
	}
	defer holdBusy()

	chain := ChainGuard{local, busy}
	if _, err := chain.Acquire(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected chain to report busy guard, got %v", err)
	}

	release, err := local.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected local guard to be released by the failed chain, got %v", err)
	}
	release()
}

func TestRunnerRunOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	processor := &stubProcessor{result: application.ProcessResult{
		Advanced: []string{"def-1"},
		Failed:   []application.ProcessFailure{{DefinitionID: "def-2", Err: errors.New("boom")}},
	}}
	runner := NewRunner(processor, nil, func() time.Time { return now }, discardLogger())

	result, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if !result.HasFailures() || len(result.Advanced) != 1 {
		t.Fatalf("expected processor result to be returned, got %+v", result)
	}
	if len(processor.nows) != 1 || !processor.nows[0].Equal(now) {
		t.Fatalf("expected processor to receive the runner clock, got %v", processor.nows)
	}
}

func TestRunnerPropagatesProcessorError(t *testing.T) {
	t.Parallel()

	processor := &stubProcessor{err: errors.New("list failed")}
	runner := NewRunner(processor, nil, nil, discardLogger())
	if _, err := runner.RunOnce(context.Background()); err == nil || err.Error() != "list failed" {
		t.Fatalf("expected processor error, got %v", err)
	}
}

func TestRunnerRejectsOverlappingPasses(t *testing.T) {
	t.Parallel()

	processor := &stubProcessor{block: make(chan struct{}), started: make(chan struct{}, 1)}
	runner := NewRunner(processor, NewLocalGuard(), nil, discardLogger())

	done := make(chan error, 1)
	go func() {
		_, err := runner.RunOnce(context.Background())
		done <- err
	}()
	<-processor.started

	if _, err := runner.RunOnce(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected overlapping pass to be rejected, got %v", err)
	}

	close(processor.block)
	if err := <-done; err != nil {
		t.Fatalf("first pass returned error: %v", err)
	}
	if got := processor.calls.Load(); got != 1 {
		t.Fatalf("expected a single processor call, got %d", got)
	}
}

func TestValidateSchedule(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"@hourly", "*/15 * * * *", "0 6 * * 1-5", "off", "OFF"} {
		if err := ValidateSchedule(expr); err != nil {
			t.Fatalf("expected %q to be valid, got %v", expr, err)
		}
	}
	for _, expr := range []string{"", "every hour", "* * * * * *"} {
		if err := ValidateSchedule(expr); err == nil {
			t.Fatalf("expected %q to be rejected", expr)
		}
	}
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()

	processor := &stubProcessor{started: make(chan struct{}, 8)}
	runner := NewRunner(processor, nil, nil, discardLogger())

	scheduler, err := NewScheduler(runner, "@every 10ms", time.UTC, time.Second, discardLogger())
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}
	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	select {
	case <-processor.started:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected scheduled pass to run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := scheduler.Stop(ctx); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := scheduler.Stop(ctx); err != nil {
		t.Fatalf("second Stop returned error: %v", err)
	}
}

func TestSchedulerOff(t *testing.T) {
	t.Parallel()

	processor := &stubProcessor{}
	scheduler, err := NewScheduler(NewRunner(processor, nil, nil, discardLogger()), ScheduleOff, nil, 0, discardLogger())
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}
	if scheduler.Enabled() {
		t.Fatalf("expected scheduler to be disabled")
	}
	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := scheduler.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}

// logLines decodes every JSON log record written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	decoder := json.NewDecoder(buf)
	for decoder.More() {
		var line map[string]any
		if err := decoder.Decode(&line); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		lines = append(lines, line)
	}
	return lines
}

type failingReleaseLeases struct {
	persistence.LeaseRepository
	err error
}

func (l failingReleaseLeases) ReleaseLease(context.Context, string, string) error {
	return l.err
}

func TestLeaseGuardLogsReleaseFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	releaseErr := errors.New("database is locked")
	guard := NewLeaseGuardWithLogger(failingReleaseLeases{LeaseRepository: memory.Open(), err: releaseErr}, "", time.Minute, nil, logger)

	release, err := guard.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected acquire to succeed, got %v", err)
	}
	release()

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %v", lines)
	}
	line := lines[0]
	if line["msg"] != "failed to release run lease" || line["level"] != "ERROR" {
		t.Fatalf("unexpected log line: %v", line)
	}
	if line["lease"] != DefaultLeaseName || line["holder"] != guard.Holder() || line["error"] != releaseErr.Error() {
		t.Fatalf("expected lease, holder and error attributes, got %v", line)
	}
}

type clockAdvancingProcessor struct {
	clock *time.Time
	step  time.Duration
}

func (p clockAdvancingProcessor) ProcessDue(context.Context, time.Time) (application.ProcessResult, error) {
	*p.clock = p.clock.Add(p.step)
	return application.ProcessResult{}, nil
}

func TestRunnerMeasuresDurationWithItsClock(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	current := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	runner := NewRunner(clockAdvancingProcessor{clock: &current, step: 90 * time.Second}, nil, func() time.Time { return current }, logger)

	if _, err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}

	var summary map[string]any
	for _, line := range logLines(t, &buf) {
		if line["msg"] == "batch pass completed" {
			summary = line
		}
	}
	if summary == nil {
		t.Fatalf("expected a pass summary log line")
	}
	if got, want := summary["duration"], float64(90*time.Second); got != want {
		t.Fatalf("expected duration %v from the runner clock, got %v", want, got)
	}
}
