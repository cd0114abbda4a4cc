package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("server.port: want %q, got %q", DefaultServerPort, cfg.Server.Port)
	}
	if cfg.Server.Timeout != DefaultTimeout {
		t.Errorf("server.timeout: want %s, got %s", DefaultTimeout, cfg.Server.Timeout)
	}
	if cfg.Client.Refresh != DefaultRefresh {
		t.Errorf("client.refresh: want %s, got %s", DefaultRefresh, cfg.Client.Refresh)
	}
	if len(cfg.Users) != 0 {
		t.Errorf("expected no seeded users, got %d", len(cfg.Users))
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yml := `
log:
  level: warn
server:
  port: "4000"
  timeout: 2s
client:
  refresh: 500ms
users:
  - login: operator1
    password: secret99
    admin: true
  - login: viewer01
    password: viewpass
`
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SUP_SERVER_PORT", "4100")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "4100" {
		t.Errorf("env override: want 4100, got %q", cfg.Server.Port)
	}
	if cfg.Server.Timeout != 2*time.Second {
		t.Errorf("timeout: got %s", cfg.Server.Timeout)
	}
	if cfg.Client.Refresh != 500*time.Millisecond {
		t.Errorf("refresh: got %s", cfg.Client.Refresh)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level: got %q", cfg.Log.Level)
	}
	if len(cfg.Users) != 2 || cfg.Users[0].Login != "operator1" || !cfg.Users[0].Admin || cfg.Users[1].Admin {
		t.Fatalf("unexpected users: %+v", cfg.Users)
	}
}

func TestLoad_RejectsNonPositiveTimeout(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("server:\n  timeout: 0s\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected validation error")
	}
}
