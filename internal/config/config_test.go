package config

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PLACES_API_KEY", "test-key")
	t.Setenv("CACHE_BACKEND", "memory")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.SearchConcurrency != 3 {
		t.Errorf("SearchConcurrency = %d, want 3", cfg.SearchConcurrency)
	}
	if cfg.CleanupInterval != 6*time.Hour {
		t.Errorf("CleanupInterval = %v, want 6h", cfg.CleanupInterval)
	}
	if cfg.Places.Language != "ja" {
		t.Errorf("Language = %s, want ja", cfg.Places.Language)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("PLACES_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Error("Load without PLACES_API_KEY should fail")
	}
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CACHE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("postgres backend without DATABASE_URL should fail")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/ekimeshi")
	if _, err := Load(); err != nil {
		t.Errorf("postgres backend with DATABASE_URL should load: %v", err)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CACHE_BACKEND", "etcd")
	if _, err := Load(); err == nil {
		t.Error("unknown backend should fail validation")
	}
}

func TestLoadRejectsZeroConcurrency(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SEARCH_CONCURRENCY", "0")
	if _, err := Load(); err == nil {
		t.Error("zero concurrency should fail validation")
	}
}
