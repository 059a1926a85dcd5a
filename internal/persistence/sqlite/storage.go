package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/cleanops-scheduler/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles every SQLite repository over a single connection pool.
type Storage struct {
	pool   *ConnectionPool
	logger *slog.Logger

	*AbsenceRepository
	*WorkerScheduleRepository
	*DefinitionRepository
	*TaskRepository
	*LeaseRepository
}

// Open connects to the database described by config. Call Migrate before use.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}

	return &Storage{
		pool:                     pool,
		logger:                   logger,
		AbsenceRepository:        NewAbsenceRepository(pool),
		WorkerScheduleRepository: NewWorkerScheduleRepository(pool),
		DefinitionRepository:     NewDefinitionRepository(pool),
		TaskRepository:           NewTaskRepository(pool),
		LeaseRepository:          NewLeaseRepository(pool),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(),
		migration.NewSQLiteExecutor(s.pool.DB()),
		migrationFiles,
		"migrations",
		s.logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
