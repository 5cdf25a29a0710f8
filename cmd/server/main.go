package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hunter/internal/auth"
	"hunter/internal/config"
	"hunter/internal/db"
	"hunter/internal/events"
	"hunter/internal/feed"
	"hunter/internal/handlers"
	"hunter/internal/metrics"
	"hunter/internal/middleware"
	"hunter/internal/models"
	"hunter/internal/notify"
	"hunter/internal/scanner"
	"hunter/internal/settings"
	"hunter/internal/store"
	"hunter/internal/version"
)

func main() {
	cfg := config.Load()

	if err := db.Init(cfg.DBPath); err != nil {
		log.Fatalf("❌ Database init failed: %v", err)
	}
	defer db.DB.Close()

	if err := settings.InitSettingsTable(db.DB); err != nil {
		log.Fatalf("❌ Settings init failed: %v", err)
	}
	if err := notify.InitTables(db.DB); err != nil {
		log.Fatalf("❌ Notification tables init failed: %v", err)
	}

	auth.CreateDefaultAdmin(cfg)
	go sessionCleanupLoop()

	// Collections
	alerts := store.NewAlerts(db.DB)
	clients := store.NewClients(db.DB)
	users := store.NewUsers(db.DB)
	alerts.Subscribe(func(list []models.Alert) {
		metrics.AlertsStored.Set(float64(len(list)))
	})
	go alertRetentionLoop(alerts)

	// Event bus and consumers
	bus := events.NewBus()
	bus.Subscribe(func(e events.Event) {
		metrics.FeedEntries.Inc()
	}, events.FeedEntry)

	hub := feed.NewHub(bus)
	defer hub.CloseAll()

	dispatcher := notify.NewDispatcher(db.DB, bus, nil)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Scanner backend client
	base := settings.GetStringSettingWithDefault(db.DB, "api", "base_url", cfg.ScannerURL)
	sc := scanner.New(base)
	sc.SetTimeout(time.Duration(settings.GetIntSettingWithDefault(db.DB, "api", "timeout_seconds", 15)) * time.Second)
	sc.SetAPIKey(settings.GetStringSettingWithDefault(db.DB, "api", "key", ""))

	// Live feed simulator
	interval := cfg.FeedInterval
	if secs := settings.GetIntSettingWithDefault(db.DB, "feed", "interval_seconds", 0); secs > 0 {
		interval = time.Duration(secs) * time.Second
	}
	simulator := feed.NewSimulator(bus, interval)
	if settings.GetBoolSettingWithDefault(db.DB, "feed", "enabled", true) {
		simulator.Start()
		defer simulator.Stop()
	}

	// Feed entries that hit a monitored keyword become alerts
	wireFeedAlerts(bus, alerts)

	checker := version.NewChecker(version.Current, "pineappledr", "hunter")

	// HTTP surface
	mux := http.NewServeMux()

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	protect := func(h http.HandlerFunc) http.HandlerFunc { return auth.RequireUser(cfg, h) }
	admin := func(h http.HandlerFunc) http.HandlerFunc { return auth.RequireAdmin(cfg, h) }

	auth.RegisterRoutes(mux, cfg, auth.DBVerifier{}, loginLimiter.Limit, protect, admin)
	handlers.RegisterRoutes(mux, handlers.Deps{
		Config:    cfg,
		Alerts:    handlers.NewAlertHandler(alerts, bus),
		Clients:   handlers.NewClientHandler(clients, sc, bus),
		Users:     handlers.NewUserHandler(users, bus),
		Dashboard: handlers.NewDashboardHandler(sc),
		Leaks:     handlers.NewLeakHandler(bus),
		System:    handlers.NewSystemHandler(sc, checker),
		Hub:       hub,
		Scanner:   sc,
	}, protect, admin)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORS(middleware.Logging(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🔎 Hunter server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Shutdown: %v", err)
	}
}

// sessionCleanupLoop purges expired sessions hourly.
func sessionCleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		auth.CleanupExpiredSessions()
	}
}

// alertRetentionLoop prunes reviewed alerts past the retention window
// twice a day.
func alertRetentionLoop(alerts *store.Collection[models.Alert]) {
	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		pruneOldAlerts(alerts)
	}
}

func pruneOldAlerts(alerts *store.Collection[models.Alert]) {
	days := settings.GetIntSettingWithDefault(db.DB, "system", "retention_days", 90)
	if days <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	err := alerts.Mutate(func(list []models.Alert) ([]models.Alert, error) {
		return store.Filter(list, func(a models.Alert) bool {
			if !a.Reviewed {
				return true
			}
			ts, err := time.Parse(time.RFC3339, a.Timestamp)
			if err != nil {
				return true
			}
			return ts.After(cutoff)
		}), nil
	})
	if err != nil {
		log.Printf("⚠️  Alert retention prune: %v", err)
	}
}

// wireFeedAlerts persists high-severity feed entries as alerts so they
// survive restarts and show up on the alerts screen.
func wireFeedAlerts(bus *events.Bus, alerts *store.Collection[models.Alert]) {
	bus.Subscribe(func(e events.Event) {
		if e.Severity < events.SeverityWarning {
			return
		}

		severity := models.SeverityMedium
		if e.Severity == events.SeverityCritical {
			severity = models.SeverityHigh
		}

		id, err := alerts.NextID()
		if err != nil {
			log.Printf("⚠️  Feed alert id: %v", err)
			return
		}

		alert := models.Alert{
			ID:        id,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Keyword:   e.Keyword,
			Severity:  severity,
			Status:    models.StatusSecure,
			Message:   e.Message,
			Reviewed:  settings.GetBoolSettingWithDefault(db.DB, "alerts", "auto_review", false),
		}
		max := settings.GetIntSettingWithDefault(db.DB, "alerts", "max_alerts", 500)
		if err := alerts.Mutate(func(list []models.Alert) ([]models.Alert, error) {
			return store.CapOldest(append(list, alert), max), nil
		}); err != nil {
			log.Printf("⚠️  Feed alert store: %v", err)
			return
		}
		metrics.AlertsCreated.Inc()
	}, events.FeedEntry)
}
