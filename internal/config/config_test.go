package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("HTTP_TIMEOUT", "")

	cfg := FromEnv()
	if cfg.APIBaseURL != "http://localhost:5001/api/v1" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.StoreDriver != StoreSQLite {
		t.Fatalf("StoreDriver = %q", cfg.StoreDriver)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout = %s", cfg.HTTPTimeout)
	}
	if !cfg.DevSeed {
		t.Fatalf("DevSeed should default to true")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.test/v1/")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS", " https://a.test , ,https://b.test")
	t.Setenv("DEV_SEED", "no")

	cfg := FromEnv()
	if cfg.APIBaseURL != "https://api.example.test/v1" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.APIBaseURL)
	}
	if cfg.StoreDriver != StoreRedis || cfg.RedisDB != 3 {
		t.Fatalf("store = %q db=%d", cfg.StoreDriver, cfg.RedisDB)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("HTTPTimeout = %s", cfg.HTTPTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.test" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.DevSeed {
		t.Fatalf("DevSeed should be false")
	}
}

func TestEnvIntFallsBack(t *testing.T) {
	t.Setenv("REDIS_DB", "seven")
	if got := envInt("REDIS_DB", 2); got != 2 {
		t.Fatalf("envInt = %d", got)
	}
}
