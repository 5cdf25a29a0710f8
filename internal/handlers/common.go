package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"hunter/internal/auth"
	"hunter/internal/models"
)

// JSONResponse sends a JSON response
func JSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("⚠️  Failed to encode JSON response: %v", err)
	}
}

// JSONError sends a JSON error response
func JSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetSessionFromContext extracts session from request context
func GetSessionFromContext(r *http.Request) *models.Session {
	return auth.GetSessionFromContext(r)
}

// getUsernameFromRequest names the acting user for audit log lines.
// With auth disabled there is no session, so it falls back to "anonymous".
func getUsernameFromRequest(r *http.Request) string {
	if s := auth.GetSessionFromContext(r); s != nil {
		return s.Username
	}
	if s := auth.GetSessionFromRequest(r); s != nil {
		return s.Username
	}
	return "anonymous"
}
