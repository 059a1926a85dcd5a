package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/cleanops-scheduler/internal/persistence"
)

type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
	shared  []slog.Attr
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	clone := r.Clone()
	clone.AddAttrs(h.shared...)
	h.records = append(h.records, clone)
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shared = append(h.shared, attrs...)
	return h
}

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

// attrs flattens the attributes of the most recent record.
func (h *recordingHandler) attrs() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]any)
	if len(h.records) == 0 {
		return out
	}
	h.records[len(h.records)-1].Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	return out
}

func (h *recordingHandler) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.records))
	for _, r := range h.records {
		out = append(out, r.Message)
	}
	return out
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

// failingTaskRepo fails CreateTask for the listed definition ids and
// delegates everything else.
type failingTaskRepo struct {
	persistence.TaskRepository
	failFor map[string]error
}

func (r *failingTaskRepo) CreateTask(ctx context.Context, task persistence.Task) error {
	if task.DefinitionID != nil {
		if err, ok := r.failFor[*task.DefinitionID]; ok {
			return err
		}
	}
	return r.TaskRepository.CreateTask(ctx, task)
}

// failingDefinitionRepo fails UpdateDefinitionSchedule for the listed ids,
// or ListDueDefinitions when listErr is set.
type failingDefinitionRepo struct {
	persistence.RecurringDefinitionRepository
	updateErr map[string]error
	listErr   error
}

func (r *failingDefinitionRepo) ListDueDefinitions(ctx context.Context, now time.Time) ([]persistence.RecurringTaskDefinition, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.RecurringDefinitionRepository.ListDueDefinitions(ctx, now)
}

func (r *failingDefinitionRepo) UpdateDefinitionSchedule(ctx context.Context, id string, update persistence.DefinitionScheduleUpdate) error {
	if err, ok := r.updateErr[id]; ok {
		return err
	}
	return r.RecurringDefinitionRepository.UpdateDefinitionSchedule(ctx, id, update)
}
