package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

// Schema statements stay within the subset SQLite and Postgres share:
// timestamps are RFC3339 TEXT and ids are TEXT.
var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS beverages (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category TEXT NOT NULL CHECK(category IN ('coffee', 'tea', 'energy', 'soda', 'other')),
  caffeine_mg INTEGER NOT NULL CHECK(caffeine_mg >= 0),
  serving_size TEXT NOT NULL,
  serving_size_oz REAL CHECK(serving_size_oz > 0)
);

CREATE TABLE IF NOT EXISTS entries (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  beverage_id TEXT NOT NULL,
  beverage_name TEXT NOT NULL,
  serving_size TEXT NOT NULL DEFAULT '',
  caffeine_mg INTEGER NOT NULL CHECK(caffeine_mg >= 0),
  consumed_at TEXT NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entries_owner_consumed ON entries(owner_id, consumed_at);
`,
	},
	{
		version: 2,
		name:    "preferences",
		sql: `
CREATE TABLE IF NOT EXISTS preferences (
  owner_id TEXT PRIMARY KEY,
  unit_preference TEXT NOT NULL DEFAULT 'oz' CHECK(unit_preference IN ('oz', 'ml', 'cup')),
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		version: 3,
		name:    "app_config",
		sql: `
CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
}

type seedBeverage struct {
	id          string
	name        string
	category    string
	caffeineMg  int
	servingSize string
	servingOz   float64
}

var defaultBeverages = []seedBeverage{
	{"coffee-1", "Espresso", "coffee", 63, "1 oz shot", 1},
	{"coffee-2", "Brewed Coffee", "coffee", 95, "8 oz cup", 8},
	{"coffee-3", "Cold Brew", "coffee", 120, "12 oz cup", 12},
	{"tea-1", "Black Tea", "tea", 47, "8 oz cup", 8},
	{"tea-2", "Green Tea", "tea", 28, "8 oz cup", 8},
	{"energy-1", "Red Bull", "energy", 80, "8.4 oz can", 8.4},
	{"energy-2", "Monster Energy", "energy", 160, "16 oz can", 16},
	{"soda-1", "Coca-Cola", "soda", 34, "12 oz can", 12},
	{"soda-2", "Diet Coke", "soda", 46, "12 oz can", 12},
}

func ApplyMigrations(d *DB) error {
	if _, err := d.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := d.QueryRow(d.Rebind(`SELECT 1 FROM schema_migrations WHERE version = ?`), m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := d.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(d.Rebind(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`), m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}

	for _, b := range defaultBeverages {
		if _, err := d.Exec(d.Rebind(`
INSERT INTO beverages(id, name, category, caffeine_mg, serving_size, serving_size_oz)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`), b.id, b.name, b.category, b.caffeineMg, b.servingSize, b.servingOz); err != nil {
			return fmt.Errorf("seed beverage %s: %w", b.id, err)
		}
	}

	return nil
}
