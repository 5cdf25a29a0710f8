package notify

import "time"

// NotificationService is a configured Shoutrrr destination.
type NotificationService struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	ServiceType      string    `json:"service_type"`
	ConfigJSON       string    `json:"config_json"`
	Enabled          bool      `json:"enabled"`
	NotifyOnCritical bool      `json:"notify_on_critical"`
	NotifyOnWarning  bool      `json:"notify_on_warning"`
	NotifyOnInfo     bool      `json:"notify_on_info"`
	CooldownSecs     int       `json:"cooldown_secs"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NotificationRecord is a row from notification_history.
type NotificationRecord struct {
	ID           int64     `json:"id"`
	ServiceID    int64     `json:"service_id"`
	EventType    string    `json:"event_type"`
	Keyword      string    `json:"keyword,omitempty"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	SentAt       time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
