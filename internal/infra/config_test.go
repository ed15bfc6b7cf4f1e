package infra

import (
	"strings"
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "DEMO_MODE", "CORS_ORIGIN", "USER_STORE", "DATABASE_URL", "REDIS_URL",
		"AUTH_JWT_SECRET", "AUTH_JWKS_URL", "AUTH_ISSUER", "GENERATION_DELAY_MS", "CONNECTION_DELAY_MS",
		"UPSTREAM_RETRY_ATTEMPTS", "RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "10000" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "10000")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("CORSOrigins mismatch: %#v", cfg.CORSOrigins)
	}
	if cfg.UserStore != UserStoreMemory {
		t.Fatalf("UserStore = %q, want %q", cfg.UserStore, UserStoreMemory)
	}
	if cfg.GenerationDelay != 2*time.Second {
		t.Fatalf("GenerationDelay = %v, want 2s", cfg.GenerationDelay)
	}
	if cfg.ConnectionDelay != 1500*time.Millisecond {
		t.Fatalf("ConnectionDelay = %v, want 1.5s", cfg.ConnectionDelay)
	}
	if cfg.DemoMode {
		t.Fatal("DemoMode = true, want false")
	}
}

func TestLoadConfigInfersUserStore(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		store string
	}{
		{"postgres from url", map[string]string{"DATABASE_URL": "postgres://example"}, UserStorePostgres},
		{"redis from url", map[string]string{"REDIS_URL": "redis://localhost:6379/0"}, UserStoreRedis},
		{"explicit wins", map[string]string{"DATABASE_URL": "postgres://example", "REDIS_URL": "redis://x", "USER_STORE": "Redis"}, UserStoreRedis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv("AUTH_JWT_SECRET", "test-secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig returned error: %v", err)
			}
			if cfg.UserStore != tt.store {
				t.Fatalf("UserStore = %q, want %q", cfg.UserStore, tt.store)
			}
		})
	}
}

func TestLoadConfigRequiresVerifierOutsideDemoMode(t *testing.T) {
	clearConfigEnv(t)

	if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "AUTH_JWT_SECRET") {
		t.Fatalf("LoadConfig error = %v, want verifier error", err)
	}

	t.Setenv("DEMO_MODE", "true")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error in demo mode: %v", err)
	}
	if !cfg.DemoMode {
		t.Fatal("DemoMode = false, want true")
	}
}

func TestLoadConfigRejectsMissingStoreURL(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("USER_STORE", "postgres")

	if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("LoadConfig error = %v, want DATABASE_URL error", err)
	}

	t.Setenv("USER_STORE", "mongo")
	if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "unsupported USER_STORE") {
		t.Fatalf("LoadConfig error = %v, want unsupported store error", err)
	}
}

func TestLoadConfigSplitsCORSOrigins(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("CORS_ORIGIN", "https://ink.example.com, http://localhost:5173 ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"https://ink.example.com", "http://localhost:5173"}
	if len(cfg.CORSOrigins) != len(expected) {
		t.Fatalf("CORSOrigins mismatch: got %#v want %#v", cfg.CORSOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.CORSOrigins[i] != origin {
			t.Fatalf("CORSOrigins[%d] = %q, want %q", i, cfg.CORSOrigins[i], origin)
		}
	}
}
