package store

import (
	"fmt"
	"regexp"
	"strings"

	"hunter/internal/models"
)

// ValidationError is a user-facing form rejection. It blocks persistence and
// is rendered as a message, never a stack trace.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// emailPattern is deliberately permissive: anything shaped local@domain.tld.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateAlert checks an alert before it enters the collection.
func ValidateAlert(a models.Alert) error {
	if strings.TrimSpace(a.Keyword) == "" {
		return invalid("keyword", "Please enter a keyword")
	}
	switch a.Severity {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh:
	default:
		return invalid("severity", "Severity must be Low, Medium or High")
	}
	switch a.Status {
	case models.StatusSecure, models.StatusCompromised:
	default:
		return invalid("status", "Status must be Secure or Compromised")
	}
	return nil
}

// ValidateClient checks a client record. All fields are required and the
// email must parse.
func ValidateClient(c models.Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "All fields are required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return invalid("email", "All fields are required")
	}
	if strings.TrimSpace(c.MispEventTitle) == "" {
		return invalid("mispEventTitle", "All fields are required")
	}
	if strings.TrimSpace(c.MispAPIKey) == "" {
		return invalid("mispApiKey", "All fields are required")
	}
	if !ValidEmail(c.Email) {
		return invalid("email", "Please enter a valid email address")
	}
	return nil
}

// ValidateManagedUser checks a managed-user row.
func ValidateManagedUser(u models.ManagedUser) error {
	if strings.TrimSpace(u.Username) == "" {
		return invalid("username", "Username is required")
	}
	switch u.Role {
	case models.ManagedRoleAdmin, models.ManagedRoleAnalyst, models.ManagedRoleMonitor:
	default:
		return invalid("role", "Role must be Admin, Analyst or Monitor")
	}
	return nil
}
