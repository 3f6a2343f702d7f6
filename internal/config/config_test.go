package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"pollme-backend/internal/config"
)

const sampleConfig = `
server:
  host: 127.0.0.1
  port: 8080
database:
  host: localhost
  port: 5432
  user: pollme
  password: devpassword
  dbname: pollme
  sslmode: disable
jwt:
  secret: file-secret
log:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.JWT.Secret != "file-secret" {
		t.Errorf("Expected jwt secret from file, got %q", cfg.JWT.Secret)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.Log.Level)
	}

	want := "host=localhost port=5432 user=pollme password=devpassword dbname=pollme sslmode=disable"
	if got := cfg.Database.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POLLME_DB_PASSWORD", "env-password")
	t.Setenv("POLLME_JWT_SECRET", "env-secret")

	cfg, err := config.Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Password != "env-password" {
		t.Errorf("Expected env password override, got %q", cfg.Database.Password)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("Expected env secret override, got %q", cfg.JWT.Secret)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	if _, err := config.Load(writeConfig(t, "server: [not a mapping")); err == nil {
		t.Error("Expected error for malformed config file")
	}
}
