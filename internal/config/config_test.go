package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.DefaultSteps != 1000 {
		t.Errorf("default steps = %d", cfg.DefaultSteps)
	}
	if cfg.IdleTimeout.Std() != 10*time.Minute {
		t.Errorf("idle timeout = %s", cfg.IdleTimeout.Std())
	}
	if cfg.SubscriberBuffer != 64 {
		t.Errorf("subscriber buffer = %d", cfg.SubscriberBuffer)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
addr: ":9000"
idle_timeout: 30s
log_level: debug
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.IdleTimeout.Std() != 30*time.Second {
		t.Errorf("idle timeout = %s", cfg.IdleTimeout.Std())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	// Untouched keys keep their defaults.
	if cfg.DefaultSteps != 1000 || cfg.SubscriberBuffer != 64 {
		t.Errorf("defaults clobbered: steps=%d buffer=%d", cfg.DefaultSteps, cfg.SubscriberBuffer)
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("idle_timeout: soonish\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error for bad duration")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	want := Default()
	want.Addr = ":7777"
	want.IdleTimeout = Duration(90 * time.Second)
	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Addr != ":7777" {
		t.Errorf("addr = %q", got.Addr)
	}
	if got.IdleTimeout.Std() != 90*time.Second {
		t.Errorf("idle timeout = %s", got.IdleTimeout.Std())
	}
}
