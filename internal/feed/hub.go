package feed

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hunter/internal/events"
	"hunter/internal/metrics"
)

// ─── WebSocket Frame Protocol ─────────────────────────────────────────────

// Frame is the wire format for messages pushed over the WebSocket.
type Frame struct {
	Type    string          `json:"type"`    // feed_entry, alert, notification
	Payload json.RawMessage `json:"payload"` // type-specific data
}

// EntryPayload is the payload for "feed_entry" frames.
type EntryPayload struct {
	Keyword   string `json:"keyword"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ─── WebSocket Hub ────────────────────────────────────────────────────────

// Hub fans feed and alert events out to connected browser sessions.
type Hub struct {
	bus      *events.Bus
	upgrader websocket.Upgrader

	mu     sync.Mutex
	nextID int64
	conns  map[int64]*wsConn
}

// wsConn wraps a WebSocket connection with its send queue.
type wsConn struct {
	conn *websocket.Conn
	send chan Frame
	done chan struct{}
}

// NewHub creates a hub and subscribes it to the event types the live
// feed view renders.
func NewHub(bus *events.Bus) *Hub {
	h := &Hub{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[int64]*wsConn),
	}

	bus.Subscribe(func(evt events.Event) {
		h.broadcastEvent(evt)
	}, events.FeedEntry, events.AlertCreated, events.AlertCompromised, events.LeakHit)

	return h
}

// HandleConnection upgrades the request and streams frames until the
// client disconnects.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	wc := &wsConn{
		conn: conn,
		send: make(chan Frame, 64),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.conns[id] = wc
	h.mu.Unlock()
	metrics.FeedConnections.Inc()

	log.Printf("[WS] Feed client %d connected", id)

	go h.writeLoop(wc)
	h.readLoop(wc)

	h.mu.Lock()
	if h.conns[id] == wc {
		delete(h.conns, id)
	}
	h.mu.Unlock()
	metrics.FeedConnections.Dec()
	close(wc.done)

	log.Printf("[WS] Feed client %d disconnected", id)
}

// readLoop drains client messages so pong handling works; the feed is
// push-only, inbound payloads are discarded.
func (h *Hub) readLoop(wc *wsConn) {
	defer wc.conn.Close()

	wc.conn.SetReadLimit(4 * 1024)
	wc.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	wc.conn.SetPongHandler(func(string) error {
		wc.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := wc.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Read error: %v", err)
			}
			return
		}
		wc.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}

// writeLoop serializes queued frames and sends periodic pings.
func (h *Hub) writeLoop(wc *wsConn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-wc.done:
			return
		case frame := <-wc.send:
			wc.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wc.conn.WriteJSON(frame); err != nil {
				wc.conn.Close()
				return
			}
		case <-ticker.C:
			if err := wc.conn.WriteControl(
				websocket.PingMessage, nil,
				time.Now().Add(10*time.Second),
			); err != nil {
				wc.conn.Close()
				return
			}
		}
	}
}

// broadcastEvent converts a bus event into a frame and queues it on
// every connection. Slow clients drop frames rather than block the bus.
func (h *Hub) broadcastEvent(evt events.Event) {
	payload, err := json.Marshal(EntryPayload{
		Keyword:   evt.Keyword,
		Severity:  evt.Severity.String(),
		Message:   evt.Message,
		Timestamp: evt.Timestamp.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	frameType := "feed_entry"
	switch evt.Type {
	case events.AlertCreated, events.AlertCompromised:
		frameType = "alert"
	case events.LeakHit:
		frameType = "notification"
	}
	frame := Frame{Type: frameType, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, wc := range h.conns {
		select {
		case wc.send <- frame:
		default:
		}
	}
}

// ActiveConnections returns the number of connected feed clients.
func (h *Hub) ActiveConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// CloseAll terminates every active connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, wc := range h.conns {
		wc.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(5*time.Second),
		)
		wc.conn.Close()
		delete(h.conns, id)
	}
}
