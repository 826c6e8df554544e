package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("CAFFINITY_DB_DRIVER", "")
	t.Setenv("CAFFINITY_GEMINI_MODEL", "")
	t.Setenv("CAFFINITY_ADVISORY_TIMEOUT", "")
	t.Setenv("CAFFINITY_ADVISORY_RPM", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.GeminiModel != "gemini-pro" {
		t.Errorf("GeminiModel = %q, want gemini-pro", cfg.GeminiModel)
	}
	if cfg.AdvisoryTimeout != 12*time.Second {
		t.Errorf("AdvisoryTimeout = %v, want 12s", cfg.AdvisoryTimeout)
	}
	if cfg.AdvisoryRPM != 10 {
		t.Errorf("AdvisoryRPM = %d, want 10", cfg.AdvisoryRPM)
	}
}

func TestLoad_ReadsOverrides(t *testing.T) {
	t.Setenv("CAFFINITY_DB_DRIVER", "Postgres")
	t.Setenv("CAFFINITY_DATABASE_URL", "postgres://u:p@localhost/caffinity?sslmode=disable")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("CAFFINITY_ADVISORY_TIMEOUT", "3s")
	t.Setenv("CAFFINITY_ADVISORY_RPM", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("DBDriver = %q, want postgres", cfg.DBDriver)
	}
	if cfg.GeminiAPIKey != "k" {
		t.Errorf("GeminiAPIKey = %q, want k", cfg.GeminiAPIKey)
	}
	if cfg.AdvisoryTimeout != 3*time.Second {
		t.Errorf("AdvisoryTimeout = %v, want 3s", cfg.AdvisoryTimeout)
	}
	if cfg.AdvisoryRPM != 2 {
		t.Errorf("AdvisoryRPM = %d, want 2", cfg.AdvisoryRPM)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("CAFFINITY_DB_DRIVER", "")
	t.Setenv("CAFFINITY_ADVISORY_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.AdvisoryTimeout != 12*time.Second {
		t.Errorf("AdvisoryTimeout = %v, want default 12s", cfg.AdvisoryTimeout)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("CAFFINITY_DB_DRIVER", "mysql")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
