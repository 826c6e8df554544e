// Package config reads process environment settings for caffinity.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is loaded once per command invocation and treated as immutable.
// Anything persisted per database lives in the app_config table instead.
type Config struct {
	// Storage
	DBDriver    string
	DatabaseURL string

	// Gemini
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Hosted analysis function
	AnalysisURL string
	AnalysisKey string

	// Identity
	AccessToken string
	JWTSecret   string

	// Advisory calls
	AdvisoryTimeout time.Duration
	AdvisoryRPM     int
}

// Load reads Config from the environment. Nothing is required; a driver
// other than sqlite or postgres is rejected.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DBDriver = strings.ToLower(getEnvString("CAFFINITY_DB_DRIVER", "sqlite"))
	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("CAFFINITY_DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}
	cfg.DatabaseURL = os.Getenv("CAFFINITY_DATABASE_URL")

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getEnvString("CAFFINITY_GEMINI_MODEL", "gemini-pro")
	cfg.GeminiBaseURL = os.Getenv("CAFFINITY_GEMINI_BASE_URL")

	cfg.AnalysisURL = os.Getenv("CAFFINITY_ANALYSIS_URL")
	cfg.AnalysisKey = os.Getenv("CAFFINITY_ANALYSIS_KEY")

	cfg.AccessToken = os.Getenv("CAFFINITY_ACCESS_TOKEN")
	cfg.JWTSecret = os.Getenv("CAFFINITY_JWT_SECRET")

	cfg.AdvisoryTimeout = getEnvDuration("CAFFINITY_ADVISORY_TIMEOUT", 12*time.Second)
	cfg.AdvisoryRPM = getEnvInt("CAFFINITY_ADVISORY_RPM", 10)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
