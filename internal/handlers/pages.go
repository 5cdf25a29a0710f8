package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"hunter/internal/auth"
	"hunter/internal/models"
)

// userPages are the routes any authenticated account can open.
var userPages = map[string]bool{
	"/":            true,
	"/dashboard":   true,
	"/alerts":      true,
	"/leak-hunter": true,
	"/settings":    true,
	"/profile":     true,
}

func isAdminPage(path string) bool {
	return path == "/admin" || strings.HasPrefix(path, "/admin/")
}

func hasAssetExtension(path string) bool {
	switch filepath.Ext(path) {
	case ".css", ".js", ".map", ".ico", ".png", ".svg", ".woff", ".woff2":
		return true
	}
	return false
}

func landingFor(role string) string {
	if role == models.RoleAdmin {
		return "/admin"
	}
	return "/dashboard"
}

// Pages serves the single-page frontend and enforces the route groups:
// /login and assets are public, the user pages need a session, and the
// /admin tree additionally needs the admin role. Anything else redirects
// to the login page.
func Pages(config models.Config) http.HandlerFunc {
	fs := http.FileServer(http.Dir(config.WebDir))
	index := filepath.Join(config.WebDir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Static assets are always served
		if hasAssetExtension(path) || strings.HasPrefix(path, "/assets/") {
			fs.ServeHTTP(w, r)
			return
		}

		session := auth.GetSessionFromRequest(r)
		if !config.AuthEnabled && session == nil {
			// Auth disabled: treat every visitor as admin
			session = &models.Session{Username: "admin", Role: models.RoleAdmin}
		}

		if dest := GuardDecision(path, session); dest != "" {
			http.Redirect(w, r, dest, http.StatusFound)
			return
		}

		http.ServeFile(w, r, index)
	}
}

// GuardDecision reports where a request for path should redirect. It
// returns the empty string when the page may be served directly.
// Unknown routes fall through to the login page, which forwards
// signed-in visitors to their landing page.
func GuardDecision(path string, session *models.Session) string {
	if hasAssetExtension(path) || strings.HasPrefix(path, "/assets/") {
		return ""
	}
	if path == "/login" {
		if session != nil {
			return landingFor(session.Role)
		}
		return ""
	}
	switch {
	case isAdminPage(path):
		if session == nil {
			return "/login"
		}
		if session.Role != models.RoleAdmin {
			return "/dashboard"
		}
	case userPages[path]:
		if session == nil {
			return "/login"
		}
	default:
		return "/login"
	}
	return ""
}
