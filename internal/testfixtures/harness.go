package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/cleanops-scheduler/internal/persistence"
	"github.com/example/cleanops-scheduler/internal/persistence/memory"
	"github.com/example/cleanops-scheduler/internal/persistence/sqlite"
	"github.com/example/cleanops-scheduler/internal/persistence/sqlite/migration"
)

// Harness exposes every repository of one storage backend so the same test
// body can run against memory and SQLite.
type Harness struct {
	Name        string
	Absences    persistence.AbsenceRepository
	Schedules   persistence.WorkerScheduleRepository
	Definitions persistence.RecurringDefinitionRepository
	Tasks       persistence.TaskRepository
	Leases      persistence.LeaseRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *Harness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a Harness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *Harness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "cleanops.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	storage, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path), logger)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &Harness{
		Name:        "sqlite",
		Absences:    storage,
		Schedules:   storage,
		Definitions: storage,
		Tasks:       storage,
		Leases:      storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// NewMemoryHarness constructs a Harness over a fresh in-memory store.
func NewMemoryHarness(tb testing.TB) *Harness {
	tb.Helper()

	storage := memory.Open()
	harness := &Harness{
		Name:        "memory",
		Absences:    storage,
		Schedules:   storage,
		Definitions: storage,
		Tasks:       storage,
		Leases:      storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// Harnesses returns one harness per storage backend.
func Harnesses(tb testing.TB) []*Harness {
	tb.Helper()
	return []*Harness{NewMemoryHarness(tb), NewSQLiteHarness(tb)}
}
