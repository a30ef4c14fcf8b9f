package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("SYNC_INTERVAL_SECONDS", "")
	t.Setenv("SLOT_BACKEND", "")
	cfg := FromEnv()
	if cfg.SyncInterval != 30*time.Second {
		t.Fatalf("expected 30s sync interval, got %s", cfg.SyncInterval)
	}
	if cfg.SlotBackend != "postgres" {
		t.Fatalf("expected postgres backend, got %q", cfg.SlotBackend)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SYNC_INTERVAL_SECONDS", "5")
	t.Setenv("SLOT_BACKEND", "Redis")
	t.Setenv("REMOTE_API_URL", "https://api.example.com/")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, ,https://b.example.com")
	cfg := FromEnv()
	if cfg.SyncInterval != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.SyncInterval)
	}
	if cfg.SlotBackend != "redis" {
		t.Fatalf("expected redis, got %q", cfg.SlotBackend)
	}
	if cfg.RemoteAPIURL != "https://api.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.RemoteAPIURL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestFromEnv_BadDurationFallsBack(t *testing.T) {
	t.Setenv("REMOTE_TIMEOUT_SECONDS", "soon")
	if got := FromEnv().RemoteTimeout; got != 10*time.Second {
		t.Fatalf("expected default timeout, got %s", got)
	}
}
