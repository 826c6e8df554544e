package service_test

import (
	"path/filepath"
	"testing"

	"github.com/saadjs/caffinity-cli/internal/db"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "caffinity.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := db.ApplyMigrations(d); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return d
}
