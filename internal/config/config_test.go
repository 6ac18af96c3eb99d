package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  api_key: "k"
redis:
  url: "localhost:6379"
research:
  provider: openrouter
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Runtime.Dev {
		t.Fatal("dev flag not carried")
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("default port = %d", cfg.Server.Port)
	}
	if cfg.Research.PollInterval != 2*time.Second {
		t.Fatalf("default poll interval = %s", cfg.Research.PollInterval)
	}
	if cfg.Research.Provider != "openrouter" {
		t.Fatalf("provider = %s", cfg.Research.Provider)
	}
	if cfg.Research.ConcurrentLimit != 16 || cfg.Research.ResumeInterval != time.Minute {
		t.Fatalf("defaults = %+v", cfg.Research)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Fatalf("log defaults = %+v", cfg.Log)
	}
	if cfg.Server.RateLimit.Requests != 10 || cfg.Server.RateLimit.Window != time.Minute {
		t.Fatalf("rate limit defaults = %+v", cfg.Server.RateLimit)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/definitely/not/here.yaml", false); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(path, []byte("server: [not a map"), 0o600)
	if _, err := LoadConfig(path, false); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}
