package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.FetchTimeout.Std() != 30*time.Second {
		t.Errorf("fetch timeout = %v", cfg.FetchTimeout.Std())
	}
	if cfg.MaxInFlight != 8 {
		t.Errorf("max inflight = %d", cfg.MaxInFlight)
	}
}

func TestLoadEmptyPathIsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.yml")
	data := []byte("log_level: debug\nfetch_timeout: 5s\ntrace_path: /tmp/t.db\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %s", cfg.LogLevel)
	}
	if cfg.FetchTimeout.Std() != 5*time.Second {
		t.Errorf("fetch timeout = %v", cfg.FetchTimeout.Std())
	}
	if cfg.TracePath != "/tmp/t.db" {
		t.Errorf("trace path = %s", cfg.TracePath)
	}
	// Untouched keys keep their defaults.
	if cfg.LogFormat != "text" || cfg.MaxInFlight != 8 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.yml")
	if err := os.WriteFile(path, []byte("fetch_timeout: banana\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load of bad duration succeeded, want error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("Load of missing file succeeded, want error")
	}
}
