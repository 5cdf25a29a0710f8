package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"hunter/internal/db"
	"hunter/internal/models"
)

const sessionLifetime = 24 * time.Hour * 7

// ErrInvalidCredentials is returned when a username/password pair does not
// match any account.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Verifier checks a credential pair and returns the matching account. The
// default implementation is database-backed; tests and future identity
// providers supply their own.
type Verifier interface {
	Verify(username, password string) (*models.User, error)
}

// DBVerifier verifies credentials against bcrypt hashes in the users table.
type DBVerifier struct{}

func (DBVerifier) Verify(username, password string) (*models.User, error) {
	var user models.User
	err := db.DB.QueryRow(
		"SELECT id, username, password_hash, role FROM users WHERE username = ?",
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)

	if err != nil || !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GenerateToken creates a secure random token
func GenerateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GetSession retrieves a session by token. Expired or unknown tokens yield nil.
func GetSession(token string) *models.Session {
	if token == "" {
		return nil
	}

	var session models.Session
	var expiresAt string

	err := db.DB.QueryRow(`
		SELECT s.token, s.user_id, u.username, u.role, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > datetime('now')
	`, token).Scan(&session.Token, &session.UserID, &session.Username, &session.Role, &expiresAt)

	if err != nil {
		return nil
	}

	session.ExpiresAt, _ = time.Parse("2006-01-02 15:04:05", expiresAt)
	return &session
}

// CreateSession creates a new session for a user
func CreateSession(userID int64) (string, time.Time, error) {
	token := GenerateToken()
	expiresAt := time.Now().Add(sessionLifetime)

	_, err := db.DB.Exec(
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, expiresAt.UTC().Format("2006-01-02 15:04:05"),
	)
	return token, expiresAt, err
}

// DeleteSession removes a session
func DeleteSession(token string) {
	db.DB.Exec("DELETE FROM sessions WHERE token = ?", token)
}

// CleanupExpiredSessions removes expired sessions from the database
func CleanupExpiredSessions() {
	db.DB.Exec("DELETE FROM sessions WHERE expires_at < datetime('now')")
}

// CreateUser inserts a login account with a bcrypt-hashed password.
func CreateUser(username, password, role string) (int64, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return 0, err
	}
	res, err := db.DB.Exec(
		"INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)",
		username, hash, role,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CreateDefaultAdmin creates the initial admin account if no users exist.
func CreateDefaultAdmin(config models.Config) {
	var count int
	db.DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	if count > 0 {
		return
	}

	password := config.AdminPass
	if password == "" {
		password = GenerateToken()[:12]
		log.Printf("🔑 Generated admin password: %s", password)
		log.Printf("   Set ADMIN_PASS environment variable to use a custom password")
	}

	if _, err := CreateUser(config.AdminUser, password, models.RoleAdmin); err != nil {
		log.Printf("⚠️  Could not create admin user: %v", err)
	} else {
		log.Printf("✓ Created admin user: %s", config.AdminUser)
	}
}
