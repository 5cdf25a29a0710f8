package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DefaultSettings defines the default configuration values
var DefaultSettings = []Setting{
	// Scanner backend
	{Category: "api", Key: "base_url", Value: "http://127.0.0.1:5001", ValueType: "string", Description: "Base URL of the scanner backend"},
	{Category: "api", Key: "key", Value: "", ValueType: "string", Description: "API key sent to the scanner backend"},
	{Category: "api", Key: "timeout_seconds", Value: "15", ValueType: "int", Description: "Scanner request timeout in seconds"},

	// Alert settings
	{Category: "alerts", Key: "page_size", Value: "5", ValueType: "int", Description: "Alerts shown per page"},
	{Category: "alerts", Key: "max_alerts", Value: "500", ValueType: "int", Description: "Maximum stored alerts before oldest are dropped"},
	{Category: "alerts", Key: "auto_review", Value: "false", ValueType: "bool", Description: "Mark feed-generated alerts as reviewed automatically"},

	// Live feed
	{Category: "feed", Key: "enabled", Value: "true", ValueType: "bool", Description: "Enable the simulated live feed"},
	{Category: "feed", Key: "interval_seconds", Value: "3", ValueType: "int", Description: "Seconds between live feed entries"},

	// Notifications
	{Category: "notifications", Key: "enabled", Value: "true", ValueType: "bool", Description: "Enable outbound notifications"},
	{Category: "notifications", Key: "min_severity", Value: "warning", ValueType: "string", Description: "Minimum event severity that triggers a notification"},
	{Category: "notifications", Key: "email_alert_level", Value: "High", ValueType: "string", Description: "Lowest alert severity that triggers an email"},

	// UI preferences
	{Category: "ui", Key: "sidebar_collapsed", Value: "false", ValueType: "bool", Description: "Collapse the navigation sidebar"},
	{Category: "ui", Key: "dark_mode", Value: "true", ValueType: "bool", Description: "Use the dark theme"},

	// Backup
	{Category: "backup", Key: "frequency", Value: "daily", ValueType: "string", Description: "Database backup frequency (daily, weekly, monthly)"},

	// System settings
	{Category: "system", Key: "retention_days", Value: "90", ValueType: "int", Description: "Days to keep resolved alerts"},
	{Category: "system", Key: "timezone", Value: "UTC", ValueType: "string", Description: "Display timezone for timestamps"},
	{Category: "system", Key: "debug", Value: "false", ValueType: "bool", Description: "Verbose request logging"},
}

// validateSettingValue validates a value against its expected type
func validateSettingValue(valueType, value string) error {
	switch valueType {
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("value must be an integer")
		}
	case "float":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("value must be a number")
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("value must be 'true' or 'false'")
		}
	case "json":
		if !json.Valid([]byte(value)) {
			return fmt.Errorf("value must be valid JSON")
		}
	}
	return nil
}
