package store

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"hunter/internal/db"
	"hunter/internal/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLoadSeedsOnFirstAccess(t *testing.T) {
	conn := setupTestDB(t)
	alerts := NewAlerts(conn)

	list, err := alerts.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(list) != len(DefaultAlerts) {
		t.Fatalf("Expected %d seeded alerts, got %d", len(DefaultAlerts), len(list))
	}
	if list[0].Keyword != DefaultAlerts[0].Keyword {
		t.Errorf("Expected seed keyword %q, got %q", DefaultAlerts[0].Keyword, list[0].Keyword)
	}
}

func TestReplaceRoundTrip(t *testing.T) {
	conn := setupTestDB(t)
	clients := NewClients(conn)

	want := []models.Client{
		{ID: 1, Name: "Acme", Email: "soc@acme.example", MispEventTitle: "Acme leaks", MispEventTags: "acme,leak", MispAPIKey: "key-1"},
		{ID: 2, Name: "Globex", Email: "sec@globex.example", MispEventTitle: "Globex leaks", MispEventTags: "globex", MispAPIKey: "key-2"},
	}
	if err := clients.Replace(want); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, err := clients.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d clients, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Client %d mismatch: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestReplaceNilStoresEmptyList(t *testing.T) {
	conn := setupTestDB(t)
	clients := NewClients(conn)

	if err := clients.Replace(nil); err != nil {
		t.Fatalf("Replace(nil) failed: %v", err)
	}
	got, err := clients.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty list, got %v", got)
	}
}

func TestMutateDeleteIsIdempotent(t *testing.T) {
	conn := setupTestDB(t)
	alerts := NewAlerts(conn)

	remove := func(id int64) error {
		return alerts.Mutate(func(list []models.Alert) ([]models.Alert, error) {
			return Filter(list, func(a models.Alert) bool { return a.ID != id }), nil
		})
	}

	before, _ := alerts.Load()
	target := before[0].ID

	if err := remove(target); err != nil {
		t.Fatalf("First delete failed: %v", err)
	}
	after1, _ := alerts.Load()

	// Deleting the same id again must succeed and change nothing
	if err := remove(target); err != nil {
		t.Fatalf("Second delete failed: %v", err)
	}
	after2, _ := alerts.Load()

	if len(after1) != len(before)-1 {
		t.Errorf("Expected %d alerts after delete, got %d", len(before)-1, len(after1))
	}
	if len(after2) != len(after1) {
		t.Errorf("Second delete changed the list: %d -> %d", len(after1), len(after2))
	}
}

func TestNextIDMonotonicAcrossDeletes(t *testing.T) {
	conn := setupTestDB(t)
	alerts := NewAlerts(conn)

	id1, err := alerts.NextID()
	if err != nil {
		t.Fatalf("NextID failed: %v", err)
	}
	id2, err := alerts.NextID()
	if err != nil {
		t.Fatalf("NextID failed: %v", err)
	}
	if id2 != id1+1 {
		t.Errorf("Expected consecutive ids, got %d then %d", id1, id2)
	}

	// Empty the collection entirely; the counter must not reset
	if err := alerts.Replace(nil); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	id3, err := alerts.NextID()
	if err != nil {
		t.Fatalf("NextID failed: %v", err)
	}
	if id3 <= id2 {
		t.Errorf("Counter reused an id after clear: %d after %d", id3, id2)
	}
}

func TestNextIDStartsAfterSeed(t *testing.T) {
	conn := setupTestDB(t)
	users := NewUsers(conn)

	id, err := users.NextID()
	if err != nil {
		t.Fatalf("NextID failed: %v", err)
	}
	if id <= int64(len(DefaultUsers)) {
		t.Errorf("Expected first id above %d seeded entries, got %d", len(DefaultUsers), id)
	}
}

func TestSubscribeNotifiesOnMutate(t *testing.T) {
	conn := setupTestDB(t)
	alerts := NewAlerts(conn)

	var seen [][]models.Alert
	alerts.Subscribe(func(list []models.Alert) {
		seen = append(seen, list)
	})

	if err := alerts.Mutate(func(list []models.Alert) ([]models.Alert, error) {
		return append(list, models.Alert{ID: 99, Keyword: "token", Severity: models.SeverityLow, Status: models.StatusSecure}), nil
	}); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	if len(seen) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(seen))
	}
	last := seen[0]
	if last[len(last)-1].ID != 99 {
		t.Errorf("Notification did not carry the appended alert")
	}
}
