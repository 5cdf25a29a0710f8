package events

import "time"

// EventType identifies the kind of event being published.
type EventType string

const (
	// Alert lifecycle
	AlertCreated     EventType = "alert_created"
	AlertUpdated     EventType = "alert_updated"
	AlertCompromised EventType = "alert_compromised"
	AlertDeleted     EventType = "alert_deleted"
	AlertsCleared    EventType = "alerts_cleared"

	// Live feed
	FeedEntry EventType = "feed_entry"

	// Leak hunter
	LeakSearch EventType = "leak_search"
	LeakHit    EventType = "leak_hit"

	// Admin CRUD
	ClientCreated EventType = "client_created"
	ClientPushed  EventType = "client_pushed"
	UserCreated   EventType = "user_created"
)

// Severity indicates the urgency of an event.
type Severity int

const (
	SeverityInfo     Severity = 0
	SeverityWarning  Severity = 1
	SeverityCritical Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// SeverityFromAlert maps an alert severity label onto a bus severity.
func SeverityFromAlert(label string) Severity {
	switch label {
	case "High", "critical", "high":
		return SeverityCritical
	case "Medium", "medium":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Event is the payload published through the bus.
type Event struct {
	Type      EventType         `json:"type"`
	Severity  Severity          `json:"severity"`
	Keyword   string            `json:"keyword,omitempty"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
