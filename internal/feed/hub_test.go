package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"hunter/internal/events"
	"hunter/internal/middleware"
)

// dialHub connects a test WebSocket client to the hub and waits until the
// hub has registered it.
func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(h.HandleConnection))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.ActiveConnections() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Hub never registered the connection")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return frame
}

func TestHubBroadcastsFeedEntry(t *testing.T) {
	bus := events.NewBus()
	h := NewHub(bus)
	conn := dialHub(t, h)

	bus.Publish(events.Event{
		Type:     events.FeedEntry,
		Severity: events.SeverityWarning,
		Keyword:  "api_key",
		Message:  `Keyword "api_key" mentioned in t.me/combolists`,
	})

	frame := readFrame(t, conn)
	if frame.Type != "feed_entry" {
		t.Errorf("Frame type = %q", frame.Type)
	}

	var payload EntryPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		t.Fatalf("Bad payload: %v", err)
	}
	if payload.Keyword != "api_key" || payload.Severity != "warning" {
		t.Errorf("Payload wrong: %+v", payload)
	}
	if payload.Timestamp == "" {
		t.Error("Expected a timestamp on the payload")
	}
}

func TestHubFrameTypes(t *testing.T) {
	bus := events.NewBus()
	h := NewHub(bus)
	conn := dialHub(t, h)

	cases := []struct {
		evt  events.EventType
		want string
	}{
		{events.AlertCreated, "alert"},
		{events.AlertCompromised, "alert"},
		{events.LeakHit, "notification"},
		{events.FeedEntry, "feed_entry"},
	}
	for _, tc := range cases {
		bus.Publish(events.Event{Type: tc.evt, Severity: events.SeverityInfo, Message: "x"})
		frame := readFrame(t, conn)
		if frame.Type != tc.want {
			t.Errorf("Event %s mapped to frame %q, want %q", tc.evt, frame.Type, tc.want)
		}
	}
}

func TestHubIgnoresUnrelatedEvents(t *testing.T) {
	bus := events.NewBus()
	h := NewHub(bus)
	conn := dialHub(t, h)

	bus.Publish(events.Event{Type: events.UserCreated, Severity: events.SeverityInfo, Message: "not for the feed"})
	bus.Publish(events.Event{Type: events.FeedEntry, Severity: events.SeverityInfo, Message: "for the feed"})

	// The first frame to arrive must be the feed entry
	frame := readFrame(t, conn)
	if frame.Type != "feed_entry" {
		t.Errorf("Expected the feed entry first, got %q", frame.Type)
	}
}

func TestHubUpgradeThroughMiddleware(t *testing.T) {
	bus := events.NewBus()
	h := NewHub(bus)

	// The production server routes /ws/feed through the same chain as
	// every other request; the upgrade must survive the wrapped writer.
	chain := middleware.CORS(middleware.Logging(http.HandlerFunc(h.HandleConnection)))
	srv := httptest.NewServer(chain)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial through middleware failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.ActiveConnections() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Hub never registered the connection")
		}
		time.Sleep(10 * time.Millisecond)
	}

	bus.Publish(events.Event{Type: events.FeedEntry, Severity: events.SeverityInfo, Message: "x"})
	if frame := readFrame(t, conn); frame.Type != "feed_entry" {
		t.Errorf("Frame type = %q", frame.Type)
	}
}

func TestHubConnectionCount(t *testing.T) {
	bus := events.NewBus()
	h := NewHub(bus)

	if h.ActiveConnections() != 0 {
		t.Errorf("Expected 0 connections, got %d", h.ActiveConnections())
	}

	conn := dialHub(t, h)
	if h.ActiveConnections() != 1 {
		t.Errorf("Expected 1 connection, got %d", h.ActiveConnections())
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for h.ActiveConnections() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Hub never dropped the closed connection")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubCloseAll(t *testing.T) {
	bus := events.NewBus()
	h := NewHub(bus)
	conn := dialHub(t, h)

	h.CloseAll()
	if h.ActiveConnections() != 0 {
		t.Errorf("Expected 0 connections after CloseAll, got %d", h.ActiveConnections())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected the client read to fail after CloseAll")
	}
}
