package scanner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/misp_events" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if limit := r.URL.Query().Get("limit"); limit != "25" {
			t.Errorf("Expected limit=25, got %q", limit)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"misp_events": []map[string]interface{}{
				{
					"id":              "101",
					"date":            "2026-08-30",
					"threat_level_id": "1",
					"info":            "Stealer logs dump",
					"Tag":             []map[string]string{{"name": "stealer"}},
				},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	events, err := c.FetchEvents(context.Background(), 25)
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.ID != "101" || e.ThreatLevelID != "1" {
		t.Errorf("Event fields wrong: %+v", e)
	}
	if len(e.Tags) != 1 || e.Tags[0].Name != "stealer" {
		t.Errorf("Tags wrong: %+v", e.Tags)
	}
	if c.Loading() {
		t.Error("Loading flag stuck after request completed")
	}
}

func TestFetchEventsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.FetchEvents(context.Background(), 10); err == nil {
		t.Error("Expected an error on 500")
	}

	// The soft variant swallows the failure and returns an empty list
	events := c.FetchEventsSoft(context.Background(), 10)
	if events == nil || len(events) != 0 {
		t.Errorf("Expected empty slice, got %v", events)
	}
	if c.Loading() {
		t.Error("Loading flag stuck after failed request")
	}
}

func TestFetchEventsEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "MISP unreachable"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.FetchEvents(context.Background(), 10)
	if err == nil {
		t.Fatal("Expected an error from the envelope")
	}
}

func TestPushClient(t *testing.T) {
	var got ClientPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/clients" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL)
	payload := ClientPayload{
		Name:                  "Acme",
		NotificationRecipient: "soc@acme.example",
		MispEventTitle:        "Acme leaks",
		MispEventTags:         []string{"acme"},
		MispAPIKey:            "key-1",
		ProcessedFilesFile:    "processed_1.json",
		SearchString:          []string{"acme"},
	}
	if err := c.PushClient(context.Background(), payload); err != nil {
		t.Fatalf("PushClient failed: %v", err)
	}
	if got.Name != "Acme" || got.MispAPIKey != "key-1" {
		t.Errorf("Payload not transmitted: %+v", got)
	}
}

func TestPushClientErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "name already registered"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.PushClient(context.Background(), ClientPayload{Name: "Acme"})
	if err == nil {
		t.Fatal("Expected an error")
	}
	if want := "scanner: name already registered"; err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}

func TestSetBaseURL(t *testing.T) {
	c := New("http://one.example")
	if c.BaseURL() != "http://one.example" {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
	c.SetBaseURL("http://two.example")
	if c.BaseURL() != "http://two.example" {
		t.Errorf("BaseURL after SetBaseURL = %q", c.BaseURL())
	}
}

func TestLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/logs" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"logs": []string{"line one", "line two"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	logs, err := c.Logs(context.Background(), 10)
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	if len(logs) != 2 || logs[0] != "line one" {
		t.Errorf("Logs = %v", logs)
	}
}

func TestAPIKeyHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-API-Key")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "running"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.FetchStatus(context.Background()); err != nil {
		t.Fatalf("FetchStatus failed: %v", err)
	}
	if got != "" {
		t.Errorf("Expected no X-API-Key header, got %q", got)
	}

	c.SetAPIKey("s3cr3t")
	if _, err := c.FetchStatus(context.Background()); err != nil {
		t.Fatalf("FetchStatus failed: %v", err)
	}
	if got != "s3cr3t" {
		t.Errorf("X-API-Key = %q", got)
	}
}
