package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"DATABASE_URL", "REDIS_URL", "BOLT_PATH", "SERVER_PORT", "FETCHER_TIMEOUT", "SOURCES_FILE", "ADMIN_JWT_SECRET", "REFRESH_INTERVAL"} {
		t.Setenv(k, "")
	}
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ServerPort != DefaultServerPort || c.Timeout != DefaultTimeout || c.SourcesFile != DefaultSourcesFile {
		t.Errorf("defaults not applied: %+v", c)
	}
	if c.RefreshInterval != 0 {
		t.Errorf("refresh should be off by default, got %v", c.RefreshInterval)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/live")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("FETCHER_TIMEOUT", "5s")
	t.Setenv("REFRESH_INTERVAL", "15m")
	t.Setenv("ADMIN_JWT_SECRET", "s3cret")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DatabaseURL != "postgres://localhost/live" || c.RedisURL != "redis://localhost:6379/1" {
		t.Errorf("unexpected urls: %+v", c)
	}
	if c.ServerPort != "9090" || c.Timeout != 5*time.Second || c.RefreshInterval != 15*time.Minute || c.JWTSecret != "s3cret" {
		t.Errorf("unexpected values: %+v", c)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/live")
	t.Setenv("FETCHER_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid FETCHER_TIMEOUT")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{"DATABASE_URL", "REDIS_URL", "BOLT_PATH", "SERVER_PORT"} {
		t.Setenv(k, "")
		// godotenv only fills variables that are absent.
		os.Unsetenv(k)
	}
	env := "BOLT_PATH=/var/lib/livecatalog.db\nSERVER_PORT=7070\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.BoltPath != "/var/lib/livecatalog.db" || c.ServerPort != "7070" {
		t.Errorf(".env not applied: %+v", c)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database_url: postgres://db/live
redis_url: redis://cache:6379/0
timeout: 10s
refresh_interval: 1h
sources_file: /etc/livecatalog/sources.json
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.DatabaseURL != "postgres://db/live" || c.RedisURL != "redis://cache:6379/0" {
		t.Errorf("unexpected urls: %+v", c)
	}
	if c.Timeout != 10*time.Second || c.RefreshInterval != time.Hour {
		t.Errorf("unexpected durations: %+v", c)
	}
	if c.ServerPort != DefaultServerPort || c.SourcesFile != "/etc/livecatalog/sources.json" {
		t.Errorf("unexpected values: %+v", c)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
