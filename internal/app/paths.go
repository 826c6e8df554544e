package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName = "caffinity"
	dbFileName = "caffinity.db"
)

func DefaultDBPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDirName, dbFileName), nil
}

// ResolveDataSource picks the database location: an explicit value wins,
// then the environment value, then the default SQLite file. Postgres has no
// default and must be configured.
func ResolveDataSource(driver, explicit, fromEnv string) (string, error) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(fromEnv); v != "" {
		return v, nil
	}
	if driver == "postgres" {
		return "", fmt.Errorf("postgres requires --db or CAFFINITY_DATABASE_URL")
	}
	return DefaultDBPath()
}

// PrepareDataSource creates the parent directory of a SQLite file. Other
// drivers need no local preparation.
func PrepareDataSource(driver, location string) error {
	if driver == "postgres" {
		return nil
	}
	dir := filepath.Dir(location)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return nil
}
