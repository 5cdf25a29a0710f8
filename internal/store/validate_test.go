package store

import (
	"testing"

	"hunter/internal/models"
)

func TestValidEmail(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"a@b.co", true},
		{"soc.team+alerts@example.org", true},
		{"not-an-email", false},
		{"missing@tld", false},
		{"spaces in@local.part", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidEmail(tc.addr); got != tc.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func TestValidateClient(t *testing.T) {
	valid := models.Client{
		Name:           "Acme",
		Email:          "soc@acme.example",
		MispEventTitle: "Acme leaks",
		MispAPIKey:     "key-1",
	}
	if err := ValidateClient(valid); err != nil {
		t.Errorf("Expected valid client, got %v", err)
	}

	missingName := valid
	missingName.Name = "  "
	err := ValidateClient(missingName)
	if err == nil {
		t.Fatal("Expected error for blank name")
	}
	if err.Error() != "All fields are required" {
		t.Errorf("Expected required-fields message, got %q", err.Error())
	}

	badEmail := valid
	badEmail.Email = "not-an-email"
	err = ValidateClient(badEmail)
	if err == nil {
		t.Fatal("Expected error for bad email")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if verr.Field != "email" {
		t.Errorf("Expected email field, got %q", verr.Field)
	}
}

func TestValidateAlert(t *testing.T) {
	good := models.Alert{Keyword: "token", Severity: models.SeverityHigh, Status: models.StatusSecure}
	if err := ValidateAlert(good); err != nil {
		t.Errorf("Expected valid alert, got %v", err)
	}

	if err := ValidateAlert(models.Alert{Keyword: "", Severity: models.SeverityLow, Status: models.StatusSecure}); err == nil {
		t.Error("Expected error for empty keyword")
	}
	if err := ValidateAlert(models.Alert{Keyword: "x", Severity: "Extreme", Status: models.StatusSecure}); err == nil {
		t.Error("Expected error for unknown severity")
	}
	if err := ValidateAlert(models.Alert{Keyword: "x", Severity: models.SeverityLow, Status: "Unknown"}); err == nil {
		t.Error("Expected error for unknown status")
	}
}

func TestValidateManagedUser(t *testing.T) {
	if err := ValidateManagedUser(models.ManagedUser{Username: "alice", Role: models.ManagedRoleAnalyst}); err != nil {
		t.Errorf("Expected valid user, got %v", err)
	}
	if err := ValidateManagedUser(models.ManagedUser{Username: "", Role: models.ManagedRoleAdmin}); err == nil {
		t.Error("Expected error for blank username")
	}
	if err := ValidateManagedUser(models.ManagedUser{Username: "bob", Role: "Root"}); err == nil {
		t.Error("Expected error for unknown role")
	}
}
