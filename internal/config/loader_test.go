package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/example/cleanops-scheduler/internal/application"
)

var allKeys = []string{
	"CLEANOPS_HTTP_PORT",
	"CLEANOPS_STORAGE",
	"CLEANOPS_SQLITE_PATH",
	"CLEANOPS_TIMEZONE",
	"CLEANOPS_PROCESS_SCHEDULE",
	"CLEANOPS_PROCESS_WORKERS",
	"CLEANOPS_LEASE_TTL",
	"CLEANOPS_TRIGGER_TOKEN_HASH",
	"CLEANOPS_TRIGGER_RATE_PER_MINUTE",
	"CLEANOPS_PROJECTION_CACHE_TTL",
	"CLEANOPS_LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.Storage != StorageSQLite || cfg.SQLitePath != "cleanops.db" {
			t.Fatalf("unexpected default storage %q at %q", cfg.Storage, cfg.SQLitePath)
		}
		if cfg.Location != time.UTC {
			t.Fatalf("expected UTC by default, got %s", cfg.Location)
		}
		if cfg.ProcessSchedule != "@hourly" || cfg.ProcessWorkers != 4 || cfg.LeaseTTL != 10*time.Minute {
			t.Fatalf("unexpected processing defaults %+v", cfg)
		}
		if cfg.TriggerEnabled() || cfg.TriggerRatePerMinute != 6 {
			t.Fatalf("expected manual trigger disabled with rate 6, got %+v", cfg)
		}
		if cfg.ProjectionCacheTTL != 30*time.Second || cfg.LogLevel != slog.LevelInfo {
			t.Fatalf("unexpected cache or log defaults %+v", cfg)
		}
	})

	t.Run("parses every field", func(t *testing.T) {
		clearEnv(t)
		hash, err := application.HashTriggerToken("token", application.Argon2idParams{
			Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
		})
		if err != nil {
			t.Fatalf("hash token: %v", err)
		}

		t.Setenv("CLEANOPS_HTTP_PORT", "9090")
		t.Setenv("CLEANOPS_STORAGE", "memory")
		t.Setenv("CLEANOPS_SQLITE_PATH", "/tmp/cleanops.db")
		t.Setenv("CLEANOPS_TIMEZONE", "Europe/Berlin")
		t.Setenv("CLEANOPS_PROCESS_SCHEDULE", "off")
		t.Setenv("CLEANOPS_PROCESS_WORKERS", "8")
		t.Setenv("CLEANOPS_LEASE_TTL", "2m")
		t.Setenv("CLEANOPS_TRIGGER_TOKEN_HASH", hash)
		t.Setenv("CLEANOPS_TRIGGER_RATE_PER_MINUTE", "0")
		t.Setenv("CLEANOPS_PROJECTION_CACHE_TTL", "0s")
		t.Setenv("CLEANOPS_LOG_LEVEL", "debug")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 || cfg.Storage != StorageMemory || cfg.SQLitePath != "/tmp/cleanops.db" {
			t.Fatalf("unexpected transport or storage %+v", cfg)
		}
		if cfg.Location.String() != "Europe/Berlin" {
			t.Fatalf("expected Europe/Berlin, got %s", cfg.Location)
		}
		if cfg.ProcessSchedule != "off" || cfg.ProcessWorkers != 8 || cfg.LeaseTTL != 2*time.Minute {
			t.Fatalf("unexpected processing values %+v", cfg)
		}
		if !cfg.TriggerEnabled() || cfg.TriggerRatePerMinute != 0 || cfg.ProjectionCacheTTL != 0 {
			t.Fatalf("unexpected trigger or cache values %+v", cfg)
		}
		if cfg.LogLevel != slog.LevelDebug {
			t.Fatalf("expected debug level, got %s", cfg.LogLevel)
		}
	})

	t.Run("collects every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CLEANOPS_HTTP_PORT", "http")
		t.Setenv("CLEANOPS_STORAGE", "postgres")
		t.Setenv("CLEANOPS_TIMEZONE", "Mars/Olympus")
		t.Setenv("CLEANOPS_PROCESS_SCHEDULE", "sometimes")
		t.Setenv("CLEANOPS_TRIGGER_TOKEN_HASH", "plain-text")
		t.Setenv("CLEANOPS_LOG_LEVEL", "loud")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{
			"CLEANOPS_HTTP_PORT",
			"CLEANOPS_STORAGE",
			"CLEANOPS_TIMEZONE",
			"CLEANOPS_PROCESS_SCHEDULE",
			"CLEANOPS_TRIGGER_TOKEN_HASH",
			"CLEANOPS_LOG_LEVEL",
		} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in error %q", key, err.Error())
			}
		}
	})
}
