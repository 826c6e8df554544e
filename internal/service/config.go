package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/saadjs/caffinity-cli/internal/db"
	"github.com/saadjs/caffinity-cli/internal/model"
)

const (
	ConfigActiveUser       = "active_user"
	ConfigAdvisoryProvider = "advisory_provider"
)

func SetConfig(ctx context.Context, d *db.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	value = strings.TrimSpace(value)
	if key == ConfigAdvisoryProvider {
		switch strings.ToLower(value) {
		case AdvisoryProviderAuto, AdvisoryProviderRules, AdvisoryProviderGemini, AdvisoryProviderAnalysis:
			value = strings.ToLower(value)
		default:
			return fmt.Errorf("advisory_provider must be one of auto, rules, gemini, analysis")
		}
	}
	_, err := d.ExecContext(ctx, d.Rebind(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`), key, value)
	if err != nil {
		return model.NewStorageError("set config", fmt.Sprintf("could not save %q", key), err)
	}
	return nil
}

func GetConfig(ctx context.Context, d *db.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := d.QueryRowContext(ctx, d.Rebind(`SELECT value FROM app_config WHERE key = ?`), key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, model.NewStorageError("get config", fmt.Sprintf("could not read %q", key), err)
	}
	return value, true, nil
}

func ListConfig(ctx context.Context, d *db.DB) (map[string]string, error) {
	rows, err := d.QueryContext(ctx, `SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, model.NewStorageError("list config", "could not read settings", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, model.NewStorageError("list config", "could not read a setting", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewStorageError("list config", "could not read settings", err)
	}
	return out, nil
}

// GetPreferences returns the owner's preferences, defaulting to ounces when
// nothing was saved.
func GetPreferences(ctx context.Context, d *db.DB, ownerID string) (model.Preferences, error) {
	ownerID, err := validateOwner(ownerID)
	if err != nil {
		return model.Preferences{}, err
	}
	prefs := model.Preferences{OwnerID: ownerID, UnitPreference: model.UnitOz}
	var unit string
	err = d.QueryRowContext(ctx, d.Rebind(`SELECT unit_preference FROM preferences WHERE owner_id = ?`), ownerID).Scan(&unit)
	if err == sql.ErrNoRows {
		return prefs, nil
	}
	if err != nil {
		return model.Preferences{}, model.NewStorageError("get preferences", "could not load preferences", err)
	}
	prefs.UnitPreference = model.UnitPreference(unit)
	return prefs, nil
}

func SetUnitPreference(ctx context.Context, d *db.DB, ownerID string, unit model.UnitPreference) error {
	ownerID, err := validateOwner(ownerID)
	if err != nil {
		return err
	}
	unit, err = ParseUnitPreference(string(unit))
	if err != nil {
		return err
	}
	_, err = d.ExecContext(ctx, d.Rebind(`
INSERT INTO preferences(owner_id, unit_preference, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(owner_id) DO UPDATE SET unit_preference=excluded.unit_preference, updated_at=excluded.updated_at
`), ownerID, string(unit))
	if err != nil {
		return model.NewStorageError("set preferences", "could not save the unit preference", err)
	}
	return nil
}
