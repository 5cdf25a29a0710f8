package settings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandlerGetAllSettings(t *testing.T) {
	h := NewHandler(setupTestDB(t))

	req := httptest.NewRequest("GET", "/api/settings", nil)
	w := httptest.NewRecorder()
	h.GetAllSettings(w, req)

	var settings []Setting
	if err := json.Unmarshal(w.Body.Bytes(), &settings); err != nil {
		t.Fatal(err)
	}
	if len(settings) != len(DefaultSettings) {
		t.Errorf("Expected %d settings, got %d", len(DefaultSettings), len(settings))
	}

	req = httptest.NewRequest("GET", "/api/settings?grouped=true", nil)
	w = httptest.NewRecorder()
	h.GetAllSettings(w, req)

	var grouped SettingsGrouped
	if err := json.Unmarshal(w.Body.Bytes(), &grouped); err != nil {
		t.Fatal(err)
	}
	if len(grouped["alerts"]) == 0 {
		t.Error("Expected grouped alerts settings")
	}
}

func TestHandlerGetSettingsByCategory(t *testing.T) {
	h := NewHandler(setupTestDB(t))

	req := httptest.NewRequest("GET", "/api/settings/feed", nil)
	req.SetPathValue("category", "feed")
	w := httptest.NewRecorder()
	h.GetSettingsByCategory(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/settings/nope", nil)
	req.SetPathValue("category", "nope")
	w = httptest.NewRecorder()
	h.GetSettingsByCategory(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown category, got %d", w.Code)
	}
}

func TestHandlerUpdateSetting(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	update := func(category, key, value string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(SettingUpdate{Value: value})
		req := httptest.NewRequest("PUT", "/api/settings/"+category+"/"+key, bytes.NewReader(body))
		req.SetPathValue("category", category)
		req.SetPathValue("key", key)
		w := httptest.NewRecorder()
		h.UpdateSetting(w, req)
		return w
	}

	w := update("alerts", "page_size", "25")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := GetIntSettingWithDefault(db, "alerts", "page_size", 0); got != 25 {
		t.Errorf("Value not persisted: %d", got)
	}

	if w := update("alerts", "page_size", "many"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for type mismatch, got %d", w.Code)
	}
	if w := update("nope", "nothing", "1"); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown setting, got %d", w.Code)
	}
}

func TestHandlerResetCategory(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	UpdateSetting(db, "alerts", "page_size", "50")

	req := httptest.NewRequest("POST", "/api/settings/reset/alerts", nil)
	req.SetPathValue("category", "alerts")
	w := httptest.NewRecorder()
	h.ResetCategory(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := GetIntSettingWithDefault(db, "alerts", "page_size", 0); got != 5 {
		t.Errorf("Category not reset: %d", got)
	}
}

func TestHandlerUpdateFiresOnUpdate(t *testing.T) {
	h := NewHandler(setupTestDB(t))

	var gotCategory, gotKey string
	h.OnUpdate = func(category, key string) {
		gotCategory, gotKey = category, key
	}

	body, _ := json.Marshal(SettingUpdate{Value: "http://other.example"})
	req := httptest.NewRequest("PUT", "/api/settings/api/base_url", bytes.NewReader(body))
	req.SetPathValue("category", "api")
	req.SetPathValue("key", "base_url")
	w := httptest.NewRecorder()
	h.UpdateSetting(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotCategory != "api" || gotKey != "base_url" {
		t.Errorf("OnUpdate got (%q, %q)", gotCategory, gotKey)
	}

	// Rejected updates must not fire the hook
	gotCategory, gotKey = "", ""
	body, _ = json.Marshal(SettingUpdate{Value: "not-a-number"})
	req = httptest.NewRequest("PUT", "/api/settings/api/timeout_seconds", bytes.NewReader(body))
	req.SetPathValue("category", "api")
	req.SetPathValue("key", "timeout_seconds")
	w = httptest.NewRecorder()
	h.UpdateSetting(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if gotCategory != "" || gotKey != "" {
		t.Error("OnUpdate fired for a rejected update")
	}
}
