package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hunter/internal/db"
	"hunter/internal/events"
	"hunter/internal/metrics"
	"hunter/internal/models"
	"hunter/internal/settings"
	"hunter/internal/store"
)

// AlertHandler serves the alerts collection.
type AlertHandler struct {
	Alerts *store.Collection[models.Alert]
	Bus    *events.Bus
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alerts *store.Collection[models.Alert], bus *events.Bus) *AlertHandler {
	return &AlertHandler{Alerts: alerts, Bus: bus}
}

// List handles GET /api/alerts
// Query params: q (keyword/message filter), page, page_size
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Alerts.Load()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		alerts = store.Filter(alerts, func(a models.Alert) bool {
			return store.MatchFold(q, a.Keyword, a.Message, a.Severity, a.Status)
		})
	}

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}

	size := settings.GetIntSettingWithDefault(db.DB, "alerts", "page_size", 5)
	if s, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && s > 0 && s <= 100 {
		size = s
	}

	JSONResponse(w, store.Paginate(alerts, page, size))
}

// Create handles POST /api/alerts
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var alert models.Alert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if alert.Severity == "" {
		alert.Severity = models.SeverityLow
	}
	if alert.Status == "" {
		alert.Status = models.StatusSecure
	}
	if err := store.ValidateAlert(alert); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.Alerts.NextID()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	alert.ID = id
	if alert.Timestamp == "" {
		alert.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	max := settings.GetIntSettingWithDefault(db.DB, "alerts", "max_alerts", 500)
	if err := h.Alerts.Mutate(func(list []models.Alert) ([]models.Alert, error) {
		return store.CapOldest(append(list, alert), max), nil
	}); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.AlertsCreated.Inc()
	h.Bus.Publish(events.Event{
		Type:     events.AlertCreated,
		Severity: events.SeverityFromAlert(alert.Severity),
		Keyword:  alert.Keyword,
		Message:  fmt.Sprintf("Alert created for keyword %q", alert.Keyword),
		Metadata: map[string]string{"alert_id": strconv.FormatInt(alert.ID, 10)},
	})

	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, alert)
}

// Update handles PUT /api/alerts/{id}
// Only fields present in the body are changed.
func (h *AlertHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid alert ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Keyword  *string `json:"keyword"`
		Severity *string `json:"severity"`
		Status   *string `json:"status"`
		Reviewed *bool   `json:"reviewed"`
		Message  *string `json:"message"`
		Note     *string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var updated *models.Alert
	err = h.Alerts.Mutate(func(list []models.Alert) ([]models.Alert, error) {
		for i := range list {
			if list[i].ID != id {
				continue
			}
			if req.Keyword != nil {
				list[i].Keyword = *req.Keyword
			}
			if req.Severity != nil {
				list[i].Severity = *req.Severity
			}
			if req.Status != nil {
				list[i].Status = *req.Status
			}
			if req.Reviewed != nil {
				list[i].Reviewed = *req.Reviewed
			}
			if req.Message != nil {
				list[i].Message = *req.Message
			}
			if req.Note != nil {
				list[i].Note = *req.Note
			}
			if err := store.ValidateAlert(list[i]); err != nil {
				return nil, err
			}
			updated = &list[i]
			return list, nil
		}
		return list, nil
	})
	if err != nil {
		status := http.StatusInternalServerError
		if _, ok := err.(*store.ValidationError); ok {
			status = http.StatusBadRequest
		}
		JSONError(w, err.Error(), status)
		return
	}
	if updated == nil {
		JSONError(w, "alert not found", http.StatusNotFound)
		return
	}

	h.publishUpdate(*updated, events.AlertUpdated)
	JSONResponse(w, updated)
}

// ToggleReviewed handles POST /api/alerts/{id}/review
func (h *AlertHandler) ToggleReviewed(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, func(a *models.Alert) events.EventType {
		a.Reviewed = !a.Reviewed
		return events.AlertUpdated
	})
}

// CycleSeverity handles POST /api/alerts/{id}/severity
// Severity advances Low → Medium → High and wraps back to Low.
func (h *AlertHandler) CycleSeverity(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, func(a *models.Alert) events.EventType {
		switch a.Severity {
		case models.SeverityLow:
			a.Severity = models.SeverityMedium
		case models.SeverityMedium:
			a.Severity = models.SeverityHigh
		default:
			a.Severity = models.SeverityLow
		}
		return events.AlertUpdated
	})
}

// ToggleStatus handles POST /api/alerts/{id}/status
// Flips between Secure and Compromised.
func (h *AlertHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, func(a *models.Alert) events.EventType {
		if a.Status == models.StatusCompromised {
			a.Status = models.StatusSecure
			return events.AlertUpdated
		}
		a.Status = models.StatusCompromised
		return events.AlertCompromised
	})
}

func (h *AlertHandler) toggle(w http.ResponseWriter, r *http.Request, apply func(*models.Alert) events.EventType) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid alert ID", http.StatusBadRequest)
		return
	}

	var updated *models.Alert
	evtType := events.AlertUpdated
	err = h.Alerts.Mutate(func(list []models.Alert) ([]models.Alert, error) {
		for i := range list {
			if list[i].ID == id {
				evtType = apply(&list[i])
				updated = &list[i]
				break
			}
		}
		return list, nil
	})
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if updated == nil {
		JSONError(w, "alert not found", http.StatusNotFound)
		return
	}

	h.publishUpdate(*updated, evtType)
	JSONResponse(w, updated)
}

func (h *AlertHandler) publishUpdate(a models.Alert, evtType events.EventType) {
	sev := events.SeverityFromAlert(a.Severity)
	if evtType == events.AlertCompromised {
		sev = events.SeverityCritical
	}
	h.Bus.Publish(events.Event{
		Type:     evtType,
		Severity: sev,
		Keyword:  a.Keyword,
		Message:  fmt.Sprintf("Alert %d (%s) is now %s", a.ID, a.Keyword, a.Status),
		Metadata: map[string]string{"alert_id": strconv.FormatInt(a.ID, 10)},
	})
}

// Delete handles DELETE /api/alerts/{id}
// Deleting an unknown ID succeeds: the result is the same either way.
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid alert ID", http.StatusBadRequest)
		return
	}

	if err := h.Alerts.Mutate(func(list []models.Alert) ([]models.Alert, error) {
		return store.Filter(list, func(a models.Alert) bool { return a.ID != id }), nil
	}); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.Bus.Publish(events.Event{
		Type:     events.AlertDeleted,
		Severity: events.SeverityInfo,
		Message:  fmt.Sprintf("Alert %d deleted", id),
	})

	JSONResponse(w, map[string]interface{}{
		"message": "alert deleted",
		"id":      id,
	})
}

// Clear handles DELETE /api/alerts
func (h *AlertHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Alerts.Replace([]models.Alert{}); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("⚠️  All alerts cleared by %s", getUsernameFromRequest(r))

	h.Bus.Publish(events.Event{
		Type:     events.AlertsCleared,
		Severity: events.SeverityInfo,
		Message:  "All alerts cleared",
	})

	JSONResponse(w, map[string]string{"message": "all alerts cleared"})
}

// Export handles GET /api/alerts/export
// Returns the full alert list as a plain-text report.
func (h *AlertHandler) Export(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Alerts.Load()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var b strings.Builder
	b.WriteString("Telegram Hunter alert export\n")
	b.WriteString("Generated: " + time.Now().UTC().Format(time.RFC3339) + "\n\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "[%d] %s  keyword=%s severity=%s status=%s reviewed=%t\n",
			a.ID, a.Timestamp, a.Keyword, a.Severity, a.Status, a.Reviewed)
		if a.Message != "" {
			fmt.Fprintf(&b, "    %s\n", a.Message)
		}
		if a.Note != "" {
			fmt.Fprintf(&b, "    note: %s\n", a.Note)
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="alerts.txt"`)
	fmt.Fprint(w, b.String())
}
