package handlers

import (
	"testing"

	"hunter/internal/models"
)

func TestGuardDecision(t *testing.T) {
	admin := &models.Session{Username: "admin", Role: models.RoleAdmin}
	user := &models.Session{Username: "alice", Role: models.RoleUser}

	cases := []struct {
		name    string
		path    string
		session *models.Session
		want    string
	}{
		{"anonymous user page", "/dashboard", nil, "/login"},
		{"anonymous alerts", "/alerts", nil, "/login"},
		{"anonymous admin page", "/admin", nil, "/login"},
		{"anonymous login page", "/login", nil, ""},
		{"anonymous unknown route", "/no-such-page", nil, "/login"},

		{"user on dashboard", "/dashboard", user, ""},
		{"user on leak hunter", "/leak-hunter", user, ""},
		{"user on admin page", "/admin", user, "/dashboard"},
		{"user on admin subpage", "/admin/users", user, "/dashboard"},
		{"user revisits login", "/login", user, "/dashboard"},
		{"user on unknown route", "/no-such-page", user, "/login"},

		{"admin on admin page", "/admin", admin, ""},
		{"admin on admin subpage", "/admin/users", admin, ""},
		{"admin on user page", "/alerts", admin, ""},
		{"admin revisits login", "/login", admin, "/admin"},

		{"asset always served", "/app.js", nil, ""},
		{"asset dir always served", "/assets/logo.png", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := GuardDecision(tc.path, tc.session); got != tc.want {
				t.Errorf("GuardDecision(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}
