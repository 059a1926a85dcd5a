package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/cleanops-scheduler/internal/application"
	"github.com/example/cleanops-scheduler/internal/trigger"
)

// Storage backends selectable through CLEANOPS_STORAGE.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config captures environment driven configuration values for the scheduling service.
type Config struct {
	HTTPPort             int
	Storage              string
	SQLitePath           string
	Location             *time.Location
	ProcessSchedule      string
	ProcessWorkers       int
	LeaseTTL             time.Duration
	TriggerTokenHash     string
	TriggerRatePerMinute int
	ProjectionCacheTTL   time.Duration
	LogLevel             slog.Level
}

// TriggerEnabled reports whether the manual trigger endpoint is configured.
func (c Config) TriggerEnabled() bool {
	return c.TriggerTokenHash != ""
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Every invalid value is collected and
// reported in a single error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:             8080,
		Storage:              StorageSQLite,
		SQLitePath:           "cleanops.db",
		Location:             time.UTC,
		ProcessSchedule:      "@hourly",
		ProcessWorkers:       4,
		LeaseTTL:             10 * time.Minute,
		TriggerRatePerMinute: 6,
		ProjectionCacheTTL:   30 * time.Second,
		LogLevel:             slog.LevelInfo,
	}

	invalid := make([]string, 0, 2)

	if portValue := lookup("CLEANOPS_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "CLEANOPS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if storage := strings.ToLower(lookup("CLEANOPS_STORAGE")); storage != "" {
		if storage != StorageSQLite && storage != StorageMemory {
			invalid = append(invalid, "CLEANOPS_STORAGE")
		} else {
			cfg.Storage = storage
		}
	}

	if path := lookup("CLEANOPS_SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}

	if zone := lookup("CLEANOPS_TIMEZONE"); zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			invalid = append(invalid, "CLEANOPS_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if schedule := lookup("CLEANOPS_PROCESS_SCHEDULE"); schedule != "" {
		if err := trigger.ValidateSchedule(schedule); err != nil {
			invalid = append(invalid, "CLEANOPS_PROCESS_SCHEDULE")
		} else {
			cfg.ProcessSchedule = schedule
		}
	}

	if workersValue := lookup("CLEANOPS_PROCESS_WORKERS"); workersValue != "" {
		workers, err := strconv.Atoi(workersValue)
		if err != nil || workers <= 0 {
			invalid = append(invalid, "CLEANOPS_PROCESS_WORKERS")
		} else {
			cfg.ProcessWorkers = workers
		}
	}

	if ttlValue := lookup("CLEANOPS_LEASE_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "CLEANOPS_LEASE_TTL")
		} else {
			cfg.LeaseTTL = ttl
		}
	}

	if hash := lookup("CLEANOPS_TRIGGER_TOKEN_HASH"); hash != "" {
		if _, err := application.NewTokenVerifier(hash); err != nil {
			invalid = append(invalid, "CLEANOPS_TRIGGER_TOKEN_HASH")
		} else {
			cfg.TriggerTokenHash = hash
		}
	}

	if rateValue := lookup("CLEANOPS_TRIGGER_RATE_PER_MINUTE"); rateValue != "" {
		perMinute, err := strconv.Atoi(rateValue)
		if err != nil || perMinute < 0 {
			invalid = append(invalid, "CLEANOPS_TRIGGER_RATE_PER_MINUTE")
		} else {
			cfg.TriggerRatePerMinute = perMinute
		}
	}

	if ttlValue := lookup("CLEANOPS_PROJECTION_CACHE_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl < 0 {
			invalid = append(invalid, "CLEANOPS_PROJECTION_CACHE_TTL")
		} else {
			cfg.ProjectionCacheTTL = ttl
		}
	}

	if levelValue := lookup("CLEANOPS_LOG_LEVEL"); levelValue != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "CLEANOPS_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
