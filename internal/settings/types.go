package settings

import "time"

// Setting is a single dashboard configuration value.
type Setting struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	ValueType   string    `json:"value_type"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SettingUpdate is the body of a setting update request.
type SettingUpdate struct {
	Value string `json:"value"`
}

// SettingsGrouped maps category name to the settings in that category.
type SettingsGrouped map[string][]Setting
