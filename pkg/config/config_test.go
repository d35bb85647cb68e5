package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ita004/analytics-engine/pkg/observability"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ANALYTICS_POSTGRES_URL", "postgres://localhost/analytics?sslmode=disable")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.HealthPort != "9090" {
		t.Errorf("health port = %q, want 9090", cfg.Server.HealthPort)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Storage.MaxConns != 25 {
		t.Errorf("max conns = %d, want 25", cfg.Storage.MaxConns)
	}
	if cfg.Observability.LogLevel != observability.InfoLevel {
		t.Errorf("log level = %v, want info", cfg.Observability.LogLevel)
	}
	if cfg.Debug {
		t.Error("debug must default off")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ANALYTICS_PORT", "3000")
	t.Setenv("ANALYTICS_LOG_LEVEL", "debug")
	t.Setenv("ANALYTICS_READ_TIMEOUT", "5s")
	t.Setenv("ANALYTICS_POSTGRES_MAX_CONNS", "50")
	t.Setenv("ANALYTICS_DEBUG", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != "3000" {
		t.Errorf("port = %q, want 3000", cfg.Server.Port)
	}
	if cfg.Observability.LogLevel != observability.DebugLevel {
		t.Errorf("log level = %v, want debug", cfg.Observability.LogLevel)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("read timeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.MaxConns != 50 {
		t.Errorf("max conns = %d, want 50", cfg.Storage.MaxConns)
	}
	if !cfg.Debug {
		t.Error("debug should be enabled")
	}
}

func TestLoadConfigOverlayFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := `
server:
  port: "4000"
redis:
  addr: "cache:6379"
  db: 2
log_level: warn
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("failed to write overlay: %v", err)
	}
	t.Setenv("ANALYTICS_CONFIG_FILE", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != "4000" {
		t.Errorf("port = %q, want overlay value 4000", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "cache:6379" {
		t.Errorf("redis addr = %q, want overlay value", cfg.Redis.Addr)
	}
	if cfg.Redis.DB != 2 {
		t.Errorf("redis db = %d, want 2", cfg.Redis.DB)
	}
	if cfg.Observability.LogLevel != observability.WarnLevel {
		t.Errorf("log level = %v, want warn", cfg.Observability.LogLevel)
	}
}

func TestLoadConfigMissingPostgresURL(t *testing.T) {
	t.Setenv("ANALYTICS_POSTGRES_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected validation failure without a postgres URL")
	}
}

func TestLoadConfigPortCollision(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ANALYTICS_PORT", "9090")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected validation failure when API and health ports collide")
	}
}

func TestLoadConfigBadOverlayFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ANALYTICS_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := LoadConfig(); err == nil {
		t.Error("expected failure for unreadable overlay file")
	}
}
