package store

import (
	"database/sql"

	"hunter/internal/models"
)

// Collection names as stored in the collections table.
const (
	AlertsCollection  = "alerts"
	ClientsCollection = "clients"
	UsersCollection   = "adminUsers"
)

// DefaultAlerts seeds a fresh install with two example alerts so the alerts
// screen is not empty on first visit.
var DefaultAlerts = []models.Alert{
	{
		ID:        1,
		Timestamp: "2025-08-01T12:00:00Z",
		Keyword:   "Telegram Bot",
		Severity:  models.SeverityHigh,
		Status:    models.StatusCompromised,
		Reviewed:  false,
		Message:   "Suspicious Telegram bot activity detected.",
	},
	{
		ID:        2,
		Timestamp: "2025-08-02T09:30:00Z",
		Keyword:   "Leaked File",
		Severity:  models.SeverityMedium,
		Status:    models.StatusSecure,
		Reviewed:  true,
		Message:   "Publicly accessible .zip file found in group.",
	},
}

// DefaultUsers seeds the admin user-management screen.
var DefaultUsers = []models.ManagedUser{
	{ID: 1, Username: "admin", Role: models.ManagedRoleAdmin},
	{ID: 2, Username: "analyst1", Role: models.ManagedRoleAnalyst},
	{ID: 3, Username: "monitor1", Role: models.ManagedRoleMonitor},
}

// NewAlerts returns the alerts collection.
func NewAlerts(db *sql.DB) *Collection[models.Alert] {
	return New(db, AlertsCollection, DefaultAlerts)
}

// NewClients returns the clients collection. Fresh installs start empty.
func NewClients(db *sql.DB) *Collection[models.Client] {
	return New[models.Client](db, ClientsCollection, nil)
}

// NewUsers returns the managed-users collection.
func NewUsers(db *sql.DB) *Collection[models.ManagedUser] {
	return New(db, UsersCollection, DefaultUsers)
}
