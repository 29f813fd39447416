package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if cfg.IdentityTTL != 48*time.Hour {
		t.Fatalf("unexpected identity ttl: %v", cfg.IdentityTTL)
	}
	if cfg.HistoryLimit != 100 {
		t.Fatalf("unexpected history limit: %d", cfg.HistoryLimit)
	}
}

func TestLoadReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	contents := "addr: \":9090\"\nredis_addr: \"redis:6380\"\nhistory_limit: 50\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("addr = %q, want :9090", cfg.Addr)
	}
	if cfg.RedisAddr != "redis:6380" {
		t.Fatalf("redis addr = %q, want redis:6380", cfg.RedisAddr)
	}
	if cfg.HistoryLimit != 50 {
		t.Fatalf("history limit = %d, want 50", cfg.HistoryLimit)
	}
	// Values absent from the file keep their defaults.
	if cfg.DatabasePath != "pokechat.db" {
		t.Fatalf("database path = %q, want default", cfg.DatabasePath)
	}
}

func TestUpdateFromKeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":7000", RedisDB: 2})

	if cfg.Addr != ":7000" {
		t.Fatalf("addr = %q, want :7000", cfg.Addr)
	}
	if cfg.RedisDB != 2 {
		t.Fatalf("redis db = %d, want 2", cfg.RedisDB)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("shutdown timeout should keep default, got %v", cfg.ShutdownTimeout)
	}
}
