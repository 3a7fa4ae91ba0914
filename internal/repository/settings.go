package repository

import (
	"context"
	"errors"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"
)

// SettingsRepository stores plugin configuration values
type SettingsRepository struct {
	db database.Database
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db database.Database) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns a setting value and whether it is set
func (r *SettingsRepository) Get(ctx context.Context, plugin, name string) (string, bool, error) {
	query := `SELECT value FROM config_plugins WHERE plugin = $plugin AND name = $name LIMIT 1`
	vars := map[string]interface{}{
		"plugin": plugin,
		"name":   name,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	data, err := firstRecord(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	value, _ := data["value"].(string)
	return value, true, nil
}

// Set stores a setting value
func (r *SettingsRepository) Set(ctx context.Context, plugin, name, value string) error {
	query := `
		UPSERT config_plugins SET plugin = $plugin, name = $name, value = $value
		WHERE plugin = $plugin AND name = $name
	`
	vars := map[string]interface{}{
		"plugin": plugin,
		"name":   name,
		"value":  value,
	}
	return r.db.Execute(ctx, query, vars)
}

// PanelistsSystemRole returns the role ID granted to panelists at system
// level, or model.NoSystemRole when unset. It is read on every call so a
// changed setting applies to the next panelist.
func (r *SettingsRepository) PanelistsSystemRole(ctx context.Context) (string, error) {
	value, _, err := r.Get(ctx, model.SettingsPlugin, model.SettingPanelistsSystemRole)
	if err != nil {
		return "", err
	}
	return model.NormalizeSystemRole(value), nil
}

// SetPanelistsSystemRole stores the role ID granted to panelists at system level
func (r *SettingsRepository) SetPanelistsSystemRole(ctx context.Context, roleID string) error {
	return r.Set(ctx, model.SettingsPlugin, model.SettingPanelistsSystemRole, model.NormalizeSystemRole(roleID))
}
