package models

import "time"

// Account roles. The role on a login account decides which route group the
// session can reach: admin accounts land on /admin, everyone else on /dashboard.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Alert severities and statuses as shown on the alerts screen.
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"

	StatusSecure      = "Secure"
	StatusCompromised = "Compromised"
)

// Managed-user roles on the admin user-management screen. These are display
// records, not login accounts.
const (
	ManagedRoleAdmin   = "Admin"
	ManagedRoleAnalyst = "Analyst"
	ManagedRoleMonitor = "Monitor"
)

// User is a login account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is an active authenticated session.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Alert is one monitored-keyword hit. Timestamp is an ISO-8601 UTC string;
// entries imported from older installs may carry arbitrary strings, which are
// displayed as-is.
type Alert struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Keyword   string `json:"keyword"`
	Severity  string `json:"severity"`
	Status    string `json:"status"`
	Reviewed  bool   `json:"reviewed"`
	Message   string `json:"message"`
	Note      string `json:"note"`
}

// Client is a monitored customer. Name is the unique key within the
// collection; MispEventTags is a comma-joined list.
type Client struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	MispEventTitle string `json:"mispEventTitle"`
	MispEventTags  string `json:"mispEventTags"`
	MispAPIKey     string `json:"mispApiKey"`
}

// ManagedUser is a row on the admin user-management screen.
type ManagedUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// RemoteTag is a tag attached to a remote MISP event.
type RemoteTag struct {
	Name string `json:"name"`
}

// RemoteEvent is a threat record owned by the scanner backend. It is fetched
// read-only for display and never persisted locally.
type RemoteEvent struct {
	ID            string      `json:"id"`
	Date          string      `json:"date"`            // "YYYY-MM-DD"
	ThreatLevelID string      `json:"threat_level_id"` // "1".."4", 1 = High
	Info          string      `json:"info"`
	Tags          []RemoteTag `json:"Tag"`
}

// Config holds server configuration.
type Config struct {
	Port         string
	DBPath       string
	WebDir       string
	ScannerURL   string
	AdminUser    string
	AdminPass    string
	AuthEnabled  bool
	FeedInterval time.Duration
}
