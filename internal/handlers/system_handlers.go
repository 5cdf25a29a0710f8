package handlers

import (
	"net/http"
	"strconv"
	"time"

	"hunter/internal/scanner"
	"hunter/internal/version"
)

// SystemHandler serves health, version and scanner diagnostics.
type SystemHandler struct {
	Scanner *scanner.Client
	Checker *version.Checker
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(sc *scanner.Client, checker *version.Checker) *SystemHandler {
	return &SystemHandler{Scanner: sc, Checker: checker}
}

// Health handles GET /api/health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, map[string]string{
		"status":  "healthy",
		"version": version.Current,
	})
}

// GetVersion handles GET /api/version
func (h *SystemHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, map[string]string{"version": version.Current})
}

// CheckUpdate handles GET /api/version/check
func (h *SystemHandler) CheckUpdate(w http.ResponseWriter, r *http.Request) {
	info, err := h.Checker.Check()
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	JSONResponse(w, info)
}

// Status handles GET /api/system/status
// Reports the scanner backend's health probe; an unreachable backend is
// reported as offline rather than an error.
func (h *SystemHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.Scanner.FetchStatus(r.Context())
	if err != nil {
		JSONResponse(w, map[string]interface{}{
			"status":    "offline",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"error":     err.Error(),
		})
		return
	}
	JSONResponse(w, status)
}

// Logs handles GET /api/system/logs?lines=N
// Proxies the scanner backend's log tail.
func (h *SystemHandler) Logs(w http.ResponseWriter, r *http.Request) {
	lines := 100
	if l, err := strconv.Atoi(r.URL.Query().Get("lines")); err == nil && l > 0 && l <= 1000 {
		lines = l
	}

	logs, err := h.Scanner.Logs(r.Context(), lines)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if logs == nil {
		logs = []string{}
	}

	JSONResponse(w, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}
