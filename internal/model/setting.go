package model

// Plugin settings owned by the concordance activity
const (
	SettingsPlugin             = "mod_concordance"
	SettingPanelistsSystemRole = "panelistssystemrole"
)

// Setting is a single plugin configuration value
type Setting struct {
	Plugin string `json:"plugin"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}
