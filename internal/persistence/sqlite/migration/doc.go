// Package migration applies versioned schema changes to SQLite databases.
//
// Migration files are read from an fs.FS (usually an embed.FS compiled into
// the binary) and follow the naming convention {version}_{description}.sql,
// for example "001_worker_calendar.sql". Applied versions are tracked in the
// schema_migrations table so each file runs exactly once, inside its own
// transaction.
//
// Example usage:
//
//	manager := NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), files, "migrations", logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
