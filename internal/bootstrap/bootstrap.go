// Package bootstrap wires configuration into storage, services and the batch
// trigger for the command binaries.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/example/cleanops-scheduler/internal/application"
	"github.com/example/cleanops-scheduler/internal/config"
	"github.com/example/cleanops-scheduler/internal/persistence"
	"github.com/example/cleanops-scheduler/internal/persistence/memory"
	"github.com/example/cleanops-scheduler/internal/persistence/sqlite"
	"github.com/example/cleanops-scheduler/internal/persistence/sqlite/migration"
	"github.com/example/cleanops-scheduler/internal/recurrence"
	"github.com/example/cleanops-scheduler/internal/trigger"
)

// NewLogger returns the JSON logger used by the binaries.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// OpenStore opens the configured backend. SQLite databases are migrated
// before they are returned.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on exit")
		return memory.Open(), nil
	case config.StorageSQLite, "":
		storage, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLitePath), logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		if err := storage.Migrate(ctx); err != nil {
			_ = storage.Close()
			return nil, err
		}
		logger.Info("sqlite storage ready", "path", cfg.SQLitePath)
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// Services bundles the application services sharing one projection cache.
type Services struct {
	Availability *application.AvailabilityService
	Calendar     *application.WorkerCalendarService
	Recurring    *application.RecurringTaskService
}

// NewServices wires the application services over store. A zero cache TTL
// disables projection caching.
func NewServices(store persistence.Store, cfg config.Config, logger *slog.Logger) Services {
	var cache *application.ProjectionCache
	if cfg.ProjectionCacheTTL > 0 {
		cache = application.NewProjectionCache(cfg.ProjectionCacheTTL, 0, nil)
	}
	recurring := application.NewRecurringTaskServiceWithLogger(
		store,
		store,
		recurrence.NewEngine(cfg.Location),
		uuid.NewString,
		nil,
		logger,
	)
	recurring.SetWorkers(cfg.ProcessWorkers)

	return Services{
		Availability: application.NewAvailabilityServiceWithLogger(store, store, cache, logger),
		Calendar:     application.NewWorkerCalendarServiceWithLogger(store, store, cache, uuid.NewString, nil, logger),
		Recurring:    recurring,
	}
}

// NewRunner guards processor with an in-process lock and the store's run
// lease so only one pass runs across every process sharing the database.
func NewRunner(processor trigger.Processor, store persistence.Store, cfg config.Config, logger *slog.Logger) *trigger.Runner {
	guard := trigger.ChainGuard{
		trigger.NewLocalGuard(),
		trigger.NewLeaseGuardWithLogger(store, trigger.DefaultLeaseName, cfg.LeaseTTL, nil, logger),
	}
	return trigger.NewRunner(processor, guard, nil, logger)
}
