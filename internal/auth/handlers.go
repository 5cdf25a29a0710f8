package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"hunter/internal/db"
	"hunter/internal/metrics"
	"hunter/internal/models"
)

// isSecureRequest checks if the request came over HTTPS (directly or via reverse proxy)
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	return strings.EqualFold(proto, "https")
}

// landingPath returns where a freshly logged-in session should be sent.
func landingPath(role string) string {
	if role == models.RoleAdmin {
		return "/admin"
	}
	return "/dashboard"
}

// Status returns authentication status for the current request.
func Status(config models.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := GetSessionFromRequest(r)

		resp := map[string]interface{}{
			"auth_enabled":  config.AuthEnabled,
			"authenticated": session != nil,
		}
		if session != nil {
			resp["username"] = session.Username
			resp["role"] = session.Role
		}
		jsonResponse(w, resp)
	}
}

// Login handles user authentication
func Login(config models.Config, verifier Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !config.AuthEnabled {
			jsonResponse(w, map[string]interface{}{
				"success": true,
				"message": "Authentication disabled",
			})
			return
		}

		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}

		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			jsonError(w, "Invalid request", http.StatusBadRequest)
			return
		}

		user, err := verifier.Verify(creds.Username, creds.Password)
		if err != nil {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			jsonError(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		metrics.LoginAttempts.WithLabelValues("success").Inc()

		token, expiresAt, err := CreateSession(user.ID)
		if err != nil {
			jsonError(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "session",
			Value:    token,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			Secure:   isSecureRequest(r),
			SameSite: http.SameSiteLaxMode,
		})

		log.Printf("🔓 Login: %s (%s)", user.Username, user.Role)
		jsonResponse(w, map[string]interface{}{
			"success":  true,
			"token":    token,
			"username": user.Username,
			"role":     user.Role,
			"landing":  landingPath(user.Role),
		})
	}
}

// Logout handles user logout
func Logout(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromRequest(r)
	if session != nil {
		DeleteSession(session.Token)
		log.Printf("🔒 Logout: %s", session.Username)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})

	jsonResponse(w, map[string]string{"status": "logged_out"})
}

// GetCurrentUser returns current user info
func GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r)
	jsonResponse(w, map[string]interface{}{
		"id":       session.UserID,
		"username": session.Username,
		"role":     session.Role,
	})
}

// ChangePassword handles password changes
func ChangePassword(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r)

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if len(req.NewPassword) < 6 {
		jsonError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	var currentHash string
	db.DB.QueryRow("SELECT password_hash FROM users WHERE id = ?", session.UserID).Scan(&currentHash)
	if !CheckPassword(currentHash, req.CurrentPassword) {
		jsonError(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	newHash, err := HashPassword(req.NewPassword)
	if err != nil {
		jsonError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	_, err = db.DB.Exec(
		"UPDATE users SET password_hash = ? WHERE id = ?",
		newHash, session.UserID,
	)
	if err != nil {
		jsonError(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	log.Printf("🔑 Password changed: %s", session.Username)
	jsonResponse(w, map[string]string{"status": "password_changed"})
}

// CreateAccount creates a login account (admin only). Role must be one of
// admin or user; anything else is rejected.
func CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		jsonError(w, "Username cannot be empty", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		jsonError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleUser {
		jsonError(w, "Role must be admin or user", http.StatusBadRequest)
		return
	}

	id, err := CreateUser(req.Username, req.Password, req.Role)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			jsonError(w, "Username already taken", http.StatusConflict)
			return
		}
		jsonError(w, "Database error", http.StatusInternalServerError)
		return
	}

	log.Printf("👤 Account created: %s (%s)", req.Username, req.Role)
	jsonResponse(w, map[string]interface{}{
		"id":       id,
		"username": req.Username,
		"role":     req.Role,
	})
}

// RegisterRoutes wires the auth endpoints. limit wraps the login handler with
// rate limiting; protect and admin wrap session-guarded endpoints.
func RegisterRoutes(mux *http.ServeMux, config models.Config, verifier Verifier,
	limit, protect, admin func(http.HandlerFunc) http.HandlerFunc) {

	mux.HandleFunc("POST /api/login", limit(Login(config, verifier)))
	mux.HandleFunc("POST /api/logout", Logout)
	mux.HandleFunc("GET /api/auth/status", Status(config))
	mux.HandleFunc("GET /api/auth/me", protect(GetCurrentUser))
	mux.HandleFunc("POST /api/auth/change-password", protect(ChangePassword))
	mux.HandleFunc("POST /api/auth/accounts", admin(CreateAccount))
}

func jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("⚠️  Failed to encode JSON response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
