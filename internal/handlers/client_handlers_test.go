package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"hunter/internal/events"
	"hunter/internal/models"
	"hunter/internal/scanner"
	"hunter/internal/store"
)

func newClientHandler(t *testing.T, scannerURL string) *ClientHandler {
	t.Helper()
	conn := setupHandlerDB(t)
	return NewClientHandler(store.NewClients(conn), scanner.New(scannerURL), events.NewBus())
}

func postClient(t *testing.T, h *ClientHandler, c models.Client) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(c)
	req := httptest.NewRequest("POST", "/api/clients", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)
	return w
}

func TestClientCreate(t *testing.T) {
	h := newClientHandler(t, "http://127.0.0.1:0")

	w := postClient(t, h, models.Client{
		Name:           "Acme",
		Email:          "soc@acme.example",
		MispEventTitle: "Acme leaks",
		MispEventTags:  "acme,leak",
		MispAPIKey:     "key-1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created models.Client
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == 0 {
		t.Error("Expected an assigned ID")
	}
}

func TestClientCreateGeneratesAPIKey(t *testing.T) {
	h := newClientHandler(t, "http://127.0.0.1:0")

	w := postClient(t, h, models.Client{
		Name:           "Globex",
		Email:          "sec@globex.example",
		MispEventTitle: "Globex leaks",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created models.Client
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.MispAPIKey == "" {
		t.Error("Expected a generated API key for a blank submission")
	}
}

func TestClientCreateValidation(t *testing.T) {
	h := newClientHandler(t, "http://127.0.0.1:0")

	// Missing fields
	w := postClient(t, h, models.Client{Name: "Acme"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing fields, got %d", w.Code)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "All fields are required" {
		t.Errorf("Expected required-fields message, got %q", resp["error"])
	}

	// Malformed email
	w = postClient(t, h, models.Client{
		Name:           "Acme",
		Email:          "not-an-email",
		MispEventTitle: "Acme leaks",
		MispAPIKey:     "key-1",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad email, got %d", w.Code)
	}
}

func TestClientCreateDuplicateName(t *testing.T) {
	h := newClientHandler(t, "http://127.0.0.1:0")

	c := models.Client{
		Name:           "Acme",
		Email:          "soc@acme.example",
		MispEventTitle: "Acme leaks",
		MispAPIKey:     "key-1",
	}
	if w := postClient(t, h, c); w.Code != http.StatusCreated {
		t.Fatalf("Setup create failed: %d", w.Code)
	}

	// Same name, different case
	c.Name = "ACME"
	c.Email = "other@acme.example"
	w := postClient(t, h, c)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate name, got %d", w.Code)
	}
}

func TestClientDeleteIsIdempotent(t *testing.T) {
	h := newClientHandler(t, "http://127.0.0.1:0")

	w := postClient(t, h, models.Client{
		Name: "Acme", Email: "soc@acme.example", MispEventTitle: "Acme leaks", MispAPIKey: "k",
	})
	var created models.Client
	json.Unmarshal(w.Body.Bytes(), &created)
	id := strconv.FormatInt(created.ID, 10)

	del := func() int {
		req := httptest.NewRequest("DELETE", "/api/clients/0", nil)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		h.Delete(rec, req)
		return rec.Code
	}
	if code := del(); code != http.StatusOK {
		t.Errorf("First delete expected 200, got %d", code)
	}
	if code := del(); code != http.StatusOK {
		t.Errorf("Repeat delete expected 200, got %d", code)
	}
}

func TestClientPush(t *testing.T) {
	var got scanner.ClientPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/clients" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	h := newClientHandler(t, srv.URL)
	w := postClient(t, h, models.Client{
		Name:           "Acme",
		Email:          "soc@acme.example",
		MispEventTitle: "Acme leaks",
		MispEventTags:  "acme, leak",
		MispAPIKey:     "key-1",
	})
	var created models.Client
	json.Unmarshal(w.Body.Bytes(), &created)

	req := httptest.NewRequest("POST", "/api/clients/0/push", nil)
	req.SetPathValue("id", strconv.FormatInt(created.ID, 10))
	rec := httptest.NewRecorder()
	h.Push(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.Name != "Acme" || got.NotificationRecipient != "soc@acme.example" {
		t.Errorf("Payload identity wrong: %+v", got)
	}
	if len(got.MispEventTags) != 2 || got.MispEventTags[1] != "leak" {
		t.Errorf("Tags not split/trimmed: %v", got.MispEventTags)
	}
	if got.ProcessedFilesFile == "" {
		t.Error("Expected a processed-files filename")
	}
}

func TestClientPushScannerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"scanner exploded"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := newClientHandler(t, srv.URL)
	w := postClient(t, h, models.Client{
		Name: "Acme", Email: "soc@acme.example", MispEventTitle: "Acme leaks", MispAPIKey: "k",
	})
	var created models.Client
	json.Unmarshal(w.Body.Bytes(), &created)

	req := httptest.NewRequest("POST", "/api/clients/0/push", nil)
	req.SetPathValue("id", strconv.FormatInt(created.ID, 10))
	rec := httptest.NewRecorder()
	h.Push(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 when scanner fails, got %d", rec.Code)
	}
}

func TestSplitTags(t *testing.T) {
	got := splitTags("  acme , leak,, stealer ")
	want := []string{"acme", "leak", "stealer"}
	if len(got) != len(want) {
		t.Fatalf("splitTags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitTags[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if splitTags("") != nil {
		t.Error("Empty input should yield nil")
	}
}
