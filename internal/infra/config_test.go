package infra

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig succeeded without DATABASE_URL")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("STORAGE_BASE_URL", "")
	t.Setenv("VIDEO_WORKERS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Fatalf("RedisURL = %q, want default", cfg.RedisURL)
	}
	if cfg.StorageBaseURL != "http://localhost:8080/static" {
		t.Fatalf("StorageBaseURL = %q, want default", cfg.StorageBaseURL)
	}
	if cfg.VideoWorkers != 1 {
		t.Fatalf("VideoWorkers = %d, want 1", cfg.VideoWorkers)
	}
	if cfg.WatchdogInterval != 15*time.Minute {
		t.Fatalf("WatchdogInterval = %v, want 15m", cfg.WatchdogInterval)
	}
	if cfg.JobTimeout != time.Hour {
		t.Fatalf("JobTimeout = %v, want 1h", cfg.JobTimeout)
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("QUEUE_MAX_ATTEMPTS", "5")
	t.Setenv("VIDEO_WORKERS", "2")
	t.Setenv("JOB_TIMEOUT_MINUTES", "90")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MaxAttempts != 5 {
		t.Fatalf("MaxAttempts = %d, want 5", cfg.MaxAttempts)
	}
	if cfg.VideoWorkers != 2 {
		t.Fatalf("VideoWorkers = %d, want 2", cfg.VideoWorkers)
	}
	if cfg.JobTimeout != 90*time.Minute {
		t.Fatalf("JobTimeout = %v, want 90m", cfg.JobTimeout)
	}
}
