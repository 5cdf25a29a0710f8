package handlers

import (
	"net/http"

	"hunter/internal/db"
	"hunter/internal/feed"
	"hunter/internal/metrics"
	"hunter/internal/models"
	"hunter/internal/scanner"
	"hunter/internal/settings"
)

// Deps bundles everything the route table needs.
type Deps struct {
	Config    models.Config
	Alerts    *AlertHandler
	Clients   *ClientHandler
	Users     *UserHandler
	Dashboard *DashboardHandler
	Leaks     *LeakHandler
	System    *SystemHandler
	Hub       *feed.Hub
	Scanner   *scanner.Client
}

// RegisterRoutes wires every non-auth endpoint. protect requires a
// session; admin additionally requires the admin role.
func RegisterRoutes(mux *http.ServeMux, deps Deps, protect, admin func(http.HandlerFunc) http.HandlerFunc) {
	// Alerts
	mux.HandleFunc("GET /api/alerts", protect(deps.Alerts.List))
	mux.HandleFunc("POST /api/alerts", protect(deps.Alerts.Create))
	mux.HandleFunc("GET /api/alerts/export", protect(deps.Alerts.Export))
	mux.HandleFunc("PUT /api/alerts/{id}", protect(deps.Alerts.Update))
	mux.HandleFunc("POST /api/alerts/{id}/review", protect(deps.Alerts.ToggleReviewed))
	mux.HandleFunc("POST /api/alerts/{id}/severity", protect(deps.Alerts.CycleSeverity))
	mux.HandleFunc("POST /api/alerts/{id}/status", protect(deps.Alerts.ToggleStatus))
	mux.HandleFunc("DELETE /api/alerts/{id}", protect(deps.Alerts.Delete))
	mux.HandleFunc("DELETE /api/alerts", admin(deps.Alerts.Clear))

	// Monitored clients (admin screens)
	mux.HandleFunc("GET /api/clients", admin(deps.Clients.List))
	mux.HandleFunc("POST /api/clients", admin(deps.Clients.Create))
	mux.HandleFunc("GET /api/clients/config", admin(deps.Clients.Config))
	mux.HandleFunc("PUT /api/clients/{id}", admin(deps.Clients.Update))
	mux.HandleFunc("DELETE /api/clients/{id}", admin(deps.Clients.Delete))
	mux.HandleFunc("POST /api/clients/{id}/push", admin(deps.Clients.Push))

	// Managed users (admin screens)
	mux.HandleFunc("GET /api/users", admin(deps.Users.List))
	mux.HandleFunc("POST /api/users", admin(deps.Users.Create))
	mux.HandleFunc("PUT /api/users/{id}", admin(deps.Users.Update))
	mux.HandleFunc("DELETE /api/users/{id}", admin(deps.Users.Delete))

	// Dashboard
	mux.HandleFunc("GET /api/misp_events", protect(deps.Dashboard.Events))
	mux.HandleFunc("GET /api/dashboard/stats", protect(deps.Dashboard.Stats))

	// Leak hunter
	mux.HandleFunc("POST /api/leaks/search", protect(deps.Leaks.Search))
	mux.HandleFunc("GET /api/leaks/export", protect(deps.Leaks.Export))

	// System
	mux.HandleFunc("GET /api/health", deps.System.Health)
	mux.HandleFunc("GET /api/version", deps.System.GetVersion)
	mux.HandleFunc("GET /api/version/check", protect(deps.System.CheckUpdate))
	mux.HandleFunc("GET /api/system/status", protect(deps.System.Status))
	mux.HandleFunc("GET /api/system/logs", admin(deps.System.Logs))

	// Settings. Scanner connection settings take effect immediately.
	settingsHandler := settings.NewHandler(db.DB)
	if deps.Scanner != nil {
		settingsHandler.OnUpdate = func(category, _ string) {
			if category != "api" && category != "" {
				return
			}
			deps.Scanner.SetBaseURL(settings.GetStringSettingWithDefault(db.DB, "api", "base_url", deps.Scanner.BaseURL()))
			deps.Scanner.SetAPIKey(settings.GetStringSettingWithDefault(db.DB, "api", "key", ""))
		}
	}
	mux.HandleFunc("GET /api/settings", protect(settingsHandler.GetAllSettings))
	mux.HandleFunc("GET /api/settings/categories", protect(settingsHandler.GetCategories))
	mux.HandleFunc("POST /api/settings/reset", admin(settingsHandler.ResetAll))
	mux.HandleFunc("POST /api/settings/reset/{category}", admin(settingsHandler.ResetCategory))
	mux.HandleFunc("GET /api/settings/{category}", protect(settingsHandler.GetSettingsByCategory))
	mux.HandleFunc("GET /api/settings/{category}/{key}", protect(settingsHandler.GetSetting))
	mux.HandleFunc("PUT /api/settings/{category}/{key}", admin(settingsHandler.UpdateSetting))

	// Notifications
	RegisterNotificationRoutes(mux, admin)

	// Live feed socket
	mux.HandleFunc("GET /ws/feed", protect(deps.Hub.HandleConnection))

	// Prometheus scrape endpoint
	mux.Handle("GET /metrics", metrics.Handler())

	// Pages and static assets (catch-all)
	mux.HandleFunc("/", Pages(deps.Config))
}

// RegisterNotificationRoutes registers all notification API routes.
func RegisterNotificationRoutes(mux *http.ServeMux, protect func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/notifications/providers", protect(GetNotificationProviders))

	mux.HandleFunc("GET /api/notifications/services", protect(ListNotificationServices))
	mux.HandleFunc("GET /api/notifications/services/{id}", protect(GetNotificationService))
	mux.HandleFunc("POST /api/notifications/services", protect(CreateNotificationService))
	mux.HandleFunc("PUT /api/notifications/services/{id}", protect(UpdateNotificationService))
	mux.HandleFunc("DELETE /api/notifications/services/{id}", protect(DeleteNotificationService))

	mux.HandleFunc("POST /api/notifications/test", protect(TestFireNotification))
	mux.HandleFunc("GET /api/notifications/history", protect(GetNotificationHistory))
}
