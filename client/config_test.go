package client_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opticode/core/client"
	"github.com/opticode/core/storage"
)

func TestDefaultConfig(t *testing.T) {
	cfg := client.DefaultConfig()

	if cfg.Storage.Backend != storage.BackendMemory {
		t.Errorf("got storage backend %q, want %q", cfg.Storage.Backend, storage.BackendMemory)
	}
	if cfg.Gateway.BaseURL != "" {
		t.Errorf("got BaseURL %q, want gateway disabled by default", cfg.Gateway.BaseURL)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := client.DefaultConfig()

	source := client.Config{}
	source.Storage.Backend = storage.BackendSQLite
	source.Storage.Path = "/tmp/opticode.db"
	source.Gateway.BaseURL = "http://localhost:5000"

	cfg.Merge(&source)

	if cfg.Storage.Backend != storage.BackendSQLite {
		t.Errorf("got backend %q, want merged sqlite", cfg.Storage.Backend)
	}
	if cfg.Gateway.BaseURL != "http://localhost:5000" {
		t.Errorf("got BaseURL %q, want merged value", cfg.Gateway.BaseURL)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	content := `{
		"storage": {
			"backend": "file",
			"path": "/tmp/opticode-store"
		},
		"gateway": {
			"base_url": "http://localhost:5000",
			"timeout_seconds": 15
		}
	}`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := client.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Storage.Backend != storage.BackendFile {
		t.Errorf("got backend %q, want file", cfg.Storage.Backend)
	}
	if cfg.Gateway.TimeoutSeconds != 15 {
		t.Errorf("got TimeoutSeconds %d, want 15", cfg.Gateway.TimeoutSeconds)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := client.LoadConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{broken"), 0o644)

	if _, err := client.LoadConfig(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
