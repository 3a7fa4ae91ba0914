package memstore

import (
	"context"

	"github.com/concordance/api/internal/model"
)

// ConcordanceStore is the in-memory concordance store
type ConcordanceStore struct {
	s *Store
}

// GetByID retrieves a concordance by ID
func (c *ConcordanceStore) GetByID(_ context.Context, id string) (*model.Concordance, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	concordance, ok := c.s.concordances[id]
	if !ok {
		return nil, nil
	}
	out := *concordance
	return &out, nil
}

// SettingsStore is the in-memory plugin settings store
type SettingsStore struct {
	s *Store
}

func settingKey(plugin, name string) string { return plugin + "/" + name }

// Get returns a setting value and whether it is set
func (st *SettingsStore) Get(_ context.Context, plugin, name string) (string, bool, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()

	v, ok := st.s.settings[settingKey(plugin, name)]
	return v, ok, nil
}

// Set stores a setting value
func (st *SettingsStore) Set(_ context.Context, plugin, name, value string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	st.s.settings[settingKey(plugin, name)] = value
	return nil
}

// PanelistsSystemRole returns the role ID granted to panelists at system
// level, or model.NoSystemRole when unset
func (st *SettingsStore) PanelistsSystemRole(ctx context.Context) (string, error) {
	v, _, err := st.Get(ctx, model.SettingsPlugin, model.SettingPanelistsSystemRole)
	if err != nil {
		return "", err
	}
	return model.NormalizeSystemRole(v), nil
}

// SetPanelistsSystemRole stores the role ID granted to panelists at system level
func (st *SettingsStore) SetPanelistsSystemRole(ctx context.Context, roleID string) error {
	return st.Set(ctx, model.SettingsPlugin, model.SettingPanelistsSystemRole, model.NormalizeSystemRole(roleID))
}
