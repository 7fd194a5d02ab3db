package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drivedocs.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
api_url: https://api.drivedocs.example
timeout: 10s
requests_per_second: 4
resilience: true
log:
  level: debug
  pretty: true
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() err = %v", err)
	}
	if cfg.APIURL != "https://api.drivedocs.example" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Timeout != 10*time.Second || cfg.RequestsPerSecond != 4 || !cfg.Resilience {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Fatalf("log = %+v", cfg.Log)
	}
}

func TestMissingFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("DRIVEDOCS_API_URL", "https://env.drivedocs.example")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath() err = %v", err)
	}
	if cfg.APIURL != "https://env.drivedocs.example" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("Timeout = %v, want default", cfg.Timeout)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "api_url: https://file.drivedocs.example\ntimeout: 10s\n")
	t.Setenv("DRIVEDOCS_API_URL", "https://env.drivedocs.example")
	t.Setenv("DRIVEDOCS_TIMEOUT", "3s")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "https://env.drivedocs.example" || cfg.Timeout != 3*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestMissingAPIURLFails(t *testing.T) {
	t.Setenv("DRIVEDOCS_API_URL", "")
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error without api_url")
	}
}
