package notify

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nicholas-fedor/shoutrrr"

	"hunter/internal/events"
	"hunter/internal/settings"
)

// Sender abstracts message dispatch so the dispatcher can be tested
// without hitting real services.
type Sender interface {
	Send(shoutrrrURL, message string) error
}

// ShoutrrrSender dispatches via the Shoutrrr library.
type ShoutrrrSender struct{}

func (ShoutrrrSender) Send(url, message string) error {
	return shoutrrr.Send(url, message)
}

// serviceConfig is the Shoutrrr URL extracted from a service's config_json.
type serviceConfig struct {
	ShoutrrrURL string `json:"shoutrrr_url"`
}

// Dispatcher subscribes to the event bus, evaluates severity flags,
// enforces per-service cooldowns, and dispatches via Shoutrrr.
type Dispatcher struct {
	db     *sql.DB
	bus    *events.Bus
	sender Sender

	// cooldowns tracks the last dispatch time per (service_id, event_type).
	mu        sync.Mutex
	cooldowns map[string]time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher wired to the given bus and database.
func NewDispatcher(db *sql.DB, bus *events.Bus, sender Sender) *Dispatcher {
	if sender == nil {
		sender = ShoutrrrSender{}
	}
	return &Dispatcher{
		db:        db,
		bus:       bus,
		sender:    sender,
		cooldowns: make(map[string]time.Time),
		stopCh:    make(chan struct{}),
	}
}

// Start subscribes to all events and begins dispatching.
func (d *Dispatcher) Start() {
	ch := make(chan events.Event, 256)

	d.bus.Subscribe(func(e events.Event) {
		select {
		case ch <- e:
		default:
			log.Printf("notify: event queue full, dropping %s event", e.Type)
		}
	})

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case e := <-ch:
				d.handle(e)
			case <-d.stopCh:
				// Drain remaining events
				for {
					select {
					case e := <-ch:
						d.handle(e)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop signals the dispatcher goroutine to finish and waits for it.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

// handle processes a single event against all enabled services. The
// notifications.enabled and notifications.min_severity settings act as
// a global floor on top of the per-service flags.
func (d *Dispatcher) handle(e events.Event) {
	if !settings.GetBoolSettingWithDefault(d.db, "notifications", "enabled", true) {
		return
	}
	if e.Severity < minSeverity(settings.GetStringSettingWithDefault(d.db, "notifications", "min_severity", "warning")) {
		return
	}

	services, err := ListEnabledServices(d.db)
	if err != nil {
		log.Printf("notify: list services: %v", err)
		return
	}

	for _, svc := range services {
		if !d.severityAllowed(svc, e.Severity) {
			continue
		}
		if !d.cooldownAllowed(svc, e) {
			continue
		}
		d.dispatch(svc, e)
	}
}

// minSeverity maps the notifications.min_severity setting to a floor.
// Unknown values mean no floor.
func minSeverity(s string) events.Severity {
	switch s {
	case "critical":
		return events.SeverityCritical
	case "warning":
		return events.SeverityWarning
	default:
		return events.SeverityInfo
	}
}

// severityAllowed checks the service's severity flags.
func (d *Dispatcher) severityAllowed(svc NotificationService, sev events.Severity) bool {
	switch sev {
	case events.SeverityCritical:
		return svc.NotifyOnCritical
	case events.SeverityWarning:
		return svc.NotifyOnWarning
	case events.SeverityInfo:
		return svc.NotifyOnInfo
	default:
		return false
	}
}

// cooldownAllowed enforces the per-service minimum interval between
// repeated notifications for the same event type. Critical events
// bypass the cooldown.
func (d *Dispatcher) cooldownAllowed(svc NotificationService, e events.Event) bool {
	if svc.CooldownSecs <= 0 || e.Severity == events.SeverityCritical {
		return true
	}

	key := fmt.Sprintf("%d:%s", svc.ID, e.Type)
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if last, ok := d.cooldowns[key]; ok && now.Sub(last) < time.Duration(svc.CooldownSecs)*time.Second {
		return false
	}
	d.cooldowns[key] = now
	return true
}

// dispatch sends the notification and records the result.
func (d *Dispatcher) dispatch(svc NotificationService, e events.Event) {
	var cfg serviceConfig
	if err := json.Unmarshal([]byte(svc.ConfigJSON), &cfg); err != nil {
		log.Printf("notify: bad config for service %d (%s): %v", svc.ID, svc.Name, err)
		return
	}
	if cfg.ShoutrrrURL == "" {
		log.Printf("notify: service %d (%s) has no shoutrrr_url", svc.ID, svc.Name)
		return
	}

	msg := formatMessage(e)
	err := d.sender.Send(cfg.ShoutrrrURL, msg)

	rec := &NotificationRecord{
		ServiceID: svc.ID,
		EventType: string(e.Type),
		Keyword:   e.Keyword,
		Message:   msg,
	}

	if err != nil {
		rec.Status = "failed"
		rec.ErrorMessage = err.Error()
		log.Printf("notify: send to %s failed: %v", svc.Name, err)
	} else {
		rec.Status = "sent"
		rec.SentAt = time.Now().UTC()
	}

	if _, dbErr := RecordNotification(d.db, rec); dbErr != nil {
		log.Printf("notify: record history: %v", dbErr)
	}
}

// formatMessage builds a human-readable notification string.
func formatMessage(e events.Event) string {
	severity := e.Severity.String()
	if e.Keyword != "" {
		return fmt.Sprintf("[%s] [%s] %s", severity, e.Keyword, e.Message)
	}
	return fmt.Sprintf("[%s] %s", severity, e.Message)
}
