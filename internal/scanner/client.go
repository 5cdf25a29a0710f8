// Package scanner is the client for the leak-scanner backend that owns the
// MISP event data. All reads are fail-soft: a dead backend degrades the
// dashboard to empty lists, it never breaks a page.
package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"hunter/internal/metrics"
	"hunter/internal/models"
)

// Client talks to the scanner backend. The base URL is operator-configurable
// at runtime (the admin settings screen can repoint it).
type Client struct {
	mu     sync.RWMutex
	base   string
	apiKey string

	http    *http.Client
	loading atomic.Bool
}

// New creates a client for the given base URL, e.g. "http://127.0.0.1:5001".
func New(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetTimeout adjusts the per-request timeout. Call before the first request.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.http.Timeout = d
	}
}

// SetBaseURL repoints the client at a different backend.
func (c *Client) SetBaseURL(base string) {
	c.mu.Lock()
	c.base = base
	c.mu.Unlock()
}

// SetAPIKey sets the key sent as X-API-Key on every request. Empty
// means no header.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

func (c *Client) authorize(req *http.Request) {
	c.mu.RLock()
	key := c.apiKey
	c.mu.RUnlock()
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
}

// BaseURL returns the current backend base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base
}

// Loading reports whether a request is currently in flight. Under overlapping
// calls the flag is last-write-wins; it always ends false once the final
// request completes.
func (c *Client) Loading() bool {
	return c.loading.Load()
}

// ClientConfig is one monitored-client entry as the scanner reports it.
type ClientConfig struct {
	Name                  string   `json:"name"`
	NotificationRecipient string   `json:"notification_recipient"`
	MispEventTitle        string   `json:"misp_event_title"`
	MispEventTags         []string `json:"misp_event_tags"`
	ProcessedFilesFile    string   `json:"processed_files_file"`
	SearchString          []string `json:"search_string"`
}

// ClientPayload is the body for registering a client with the scanner.
type ClientPayload struct {
	Name                  string   `json:"name"`
	NotificationRecipient string   `json:"notification_recipient"`
	MispEventTitle        string   `json:"misp_event_title"`
	MispEventTags         []string `json:"misp_event_tags"`
	MispAPIKey            string   `json:"misp_api_key"`
	ProcessedFilesFile    string   `json:"processed_files_file"`
	SearchString          []string `json:"search_string"`
}

// Status is the scanner's health probe response.
type Status struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// FetchEvents returns up to limit recent events from GET /api/misp_events.
func (c *Client) FetchEvents(ctx context.Context, limit int) ([]models.RemoteEvent, error) {
	var envelope struct {
		Events []models.RemoteEvent `json:"misp_events"`
		Error  string               `json:"error"`
	}

	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "/api/misp_events", q, &envelope); err != nil {
		return nil, err
	}
	if envelope.Error != "" {
		return nil, fmt.Errorf("scanner: %s", envelope.Error)
	}
	if envelope.Events == nil {
		return []models.RemoteEvent{}, nil
	}
	return envelope.Events, nil
}

// FetchEventsSoft is FetchEvents with the fail-soft contract: any failure is
// logged and an empty list returned, so callers can render unconditionally.
func (c *Client) FetchEventsSoft(ctx context.Context, limit int) []models.RemoteEvent {
	events, err := c.FetchEvents(ctx, limit)
	if err != nil {
		log.Printf("⚠️  Event fetch failed: %v", err)
		return []models.RemoteEvent{}
	}
	return events
}

// ClientsConfig returns the scanner's configured clients.
func (c *Client) ClientsConfig(ctx context.Context) ([]ClientConfig, error) {
	var envelope struct {
		Clients []ClientConfig `json:"clients"`
		Error   string         `json:"error"`
	}
	if err := c.getJSON(ctx, "/api/clients_config", nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Error != "" {
		return nil, fmt.Errorf("scanner: %s", envelope.Error)
	}
	return envelope.Clients, nil
}

// PushClient registers a client with the scanner backend.
func (c *Client) PushClient(ctx context.Context, payload ClientPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("scanner: encode client: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL()+"/api/clients", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("scanner: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	c.loading.Store(true)
	resp, err := c.http.Do(req)
	c.loading.Store(false)
	if err != nil {
		metrics.UpstreamErrors.Inc()
		return fmt.Errorf("scanner: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("scanner: %s", apiErr.Error)
		}
		return fmt.Errorf("scanner: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Logs returns the last n lines of the scanner's log file.
func (c *Client) Logs(ctx context.Context, lines int) ([]string, error) {
	var envelope struct {
		Logs  []string `json:"logs"`
		Error string   `json:"error"`
	}
	q := url.Values{"lines": {strconv.Itoa(lines)}}
	if err := c.getJSON(ctx, "/api/logs", q, &envelope); err != nil {
		return nil, err
	}
	if envelope.Error != "" {
		return nil, fmt.Errorf("scanner: %s", envelope.Error)
	}
	if envelope.Logs == nil {
		return []string{}, nil
	}
	return envelope.Logs, nil
}

// FetchStatus probes GET /api/status.
func (c *Client) FetchStatus(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.getJSON(ctx, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// getJSON performs one GET with the loading flag held for its duration.
// No retries: a failed fetch stays failed until the consumer re-triggers.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.BaseURL() + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("scanner: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	c.loading.Store(true)
	defer c.loading.Store(false)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamErrors.Inc()
		return fmt.Errorf("scanner: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.UpstreamErrors.Inc()
		return fmt.Errorf("scanner: unexpected status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("scanner: decode %s: %w", path, err)
	}
	return nil
}
