package notify

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := InitTables(db); err != nil {
		t.Fatalf("Failed to init notification tables: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testService() *NotificationService {
	return &NotificationService{
		Name:             "SOC Telegram",
		ServiceType:      "telegram",
		ConfigJSON:       `{"shoutrrr_url":"telegram://token@telegram?chats=1"}`,
		Enabled:          true,
		NotifyOnCritical: true,
		NotifyOnWarning:  true,
		CooldownSecs:     60,
	}
}

func TestServiceCRUD(t *testing.T) {
	db := setupTestDB(t)

	id, err := CreateService(db, testService())
	if err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}

	svc, err := GetService(db, id)
	if err != nil {
		t.Fatalf("GetService failed: %v", err)
	}
	if svc == nil {
		t.Fatal("Expected the created service")
	}
	if svc.Name != "SOC Telegram" || svc.ServiceType != "telegram" {
		t.Errorf("Service fields wrong: %+v", svc)
	}
	if !svc.Enabled || !svc.NotifyOnCritical || !svc.NotifyOnWarning || svc.NotifyOnInfo {
		t.Errorf("Flags wrong: %+v", svc)
	}
	if svc.CooldownSecs != 60 {
		t.Errorf("CooldownSecs = %d", svc.CooldownSecs)
	}

	svc.Name = "SOC Telegram (backup)"
	svc.Enabled = false
	if err := UpdateService(db, svc); err != nil {
		t.Fatalf("UpdateService failed: %v", err)
	}
	got, _ := GetService(db, id)
	if got.Name != "SOC Telegram (backup)" || got.Enabled {
		t.Errorf("Update not applied: %+v", got)
	}

	if err := DeleteService(db, id); err != nil {
		t.Fatalf("DeleteService failed: %v", err)
	}
	gone, err := GetService(db, id)
	if err != nil {
		t.Fatalf("GetService after delete errored: %v", err)
	}
	if gone != nil {
		t.Error("Service still present after delete")
	}

	if err := DeleteService(db, id); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not-found error on repeat delete, got %v", err)
	}
}

func TestListEnabledServices(t *testing.T) {
	db := setupTestDB(t)

	on := testService()
	CreateService(db, on)

	off := testService()
	off.Name = "Disabled Slack"
	off.Enabled = false
	CreateService(db, off)

	all, err := ListServices(db)
	if err != nil {
		t.Fatalf("ListServices failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 services, got %d", len(all))
	}

	enabled, err := ListEnabledServices(db)
	if err != nil {
		t.Fatalf("ListEnabledServices failed: %v", err)
	}
	if len(enabled) != 1 || enabled[0].Name != "SOC Telegram" {
		t.Errorf("Expected only the enabled service, got %+v", enabled)
	}
}

func TestNotificationHistory(t *testing.T) {
	db := setupTestDB(t)
	id, _ := CreateService(db, testService())

	if _, err := RecordNotification(db, &NotificationRecord{
		ServiceID: id,
		EventType: "alert_compromised",
		Keyword:   "api_key",
		Message:   "[critical] [api_key] Alert 3 is now Compromised",
		Status:    "sent",
		SentAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("RecordNotification failed: %v", err)
	}
	if _, err := RecordNotification(db, &NotificationRecord{
		ServiceID:    id,
		EventType:    "leak_hit",
		Message:      "[critical] leak hit",
		Status:       "failed",
		ErrorMessage: "connection refused",
	}); err != nil {
		t.Fatalf("RecordNotification failed: %v", err)
	}

	history, err := RecentHistory(db, 10)
	if err != nil {
		t.Fatalf("RecentHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(history))
	}

	byType := map[string]NotificationRecord{}
	for _, r := range history {
		byType[r.EventType] = r
	}
	sent := byType["alert_compromised"]
	if sent.Status != "sent" || sent.SentAt.IsZero() {
		t.Errorf("Sent record wrong: %+v", sent)
	}
	failed := byType["leak_hit"]
	if failed.Status != "failed" || failed.ErrorMessage != "connection refused" {
		t.Errorf("Failed record wrong: %+v", failed)
	}
	if !failed.SentAt.IsZero() {
		t.Error("Failed record must not carry a sent time")
	}

	limited, _ := RecentHistory(db, 1)
	if len(limited) != 1 {
		t.Errorf("Limit ignored: got %d records", len(limited))
	}
}
