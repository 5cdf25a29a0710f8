package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"hunter/internal/events"
	"hunter/internal/models"
	"hunter/internal/scanner"
	"hunter/internal/store"
)

// ClientHandler serves the monitored-client collection and pushes
// configurations to the scanner backend.
type ClientHandler struct {
	Clients *store.Collection[models.Client]
	Scanner *scanner.Client
	Bus     *events.Bus
}

// NewClientHandler creates a new client handler
func NewClientHandler(clients *store.Collection[models.Client], sc *scanner.Client, bus *events.Bus) *ClientHandler {
	return &ClientHandler{Clients: clients, Scanner: sc, Bus: bus}
}

// List handles GET /api/clients
// Query params: q (name/email filter)
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Clients.Load()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		clients = store.Filter(clients, func(c models.Client) bool {
			return store.MatchFold(q, c.Name, c.Email, c.MispEventTitle)
		})
	}

	JSONResponse(w, map[string]interface{}{
		"clients": clients,
		"count":   len(clients),
	})
}

// Create handles POST /api/clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var client models.Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// A blank key gets generated so the form stays optional
	if strings.TrimSpace(client.MispAPIKey) == "" {
		client.MispAPIKey = uuid.NewString()
	}
	if err := store.ValidateClient(client); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.Clients.NextID()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	client.ID = id

	err = h.Clients.Mutate(func(list []models.Client) ([]models.Client, error) {
		for _, existing := range list {
			if strings.EqualFold(existing.Name, client.Name) {
				return nil, fmt.Errorf("client %q already exists", client.Name)
			}
		}
		return append(list, client), nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			JSONError(w, err.Error(), http.StatusConflict)
			return
		}
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.Bus.Publish(events.Event{
		Type:     events.ClientCreated,
		Severity: events.SeverityInfo,
		Message:  fmt.Sprintf("Client %q created", client.Name),
		Metadata: map[string]string{"client_id": strconv.FormatInt(client.ID, 10)},
	})

	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, client)
}

// Update handles PUT /api/clients/{id}
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid client ID", http.StatusBadRequest)
		return
	}

	var req models.Client
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.ID = id
	if err := store.ValidateClient(req); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var found bool
	err = h.Clients.Mutate(func(list []models.Client) ([]models.Client, error) {
		for i := range list {
			if list[i].ID != id && strings.EqualFold(list[i].Name, req.Name) {
				return nil, fmt.Errorf("client %q already exists", req.Name)
			}
		}
		for i := range list {
			if list[i].ID == id {
				list[i] = req
				found = true
				break
			}
		}
		return list, nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			JSONError(w, err.Error(), http.StatusConflict)
			return
		}
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		JSONError(w, "client not found", http.StatusNotFound)
		return
	}

	JSONResponse(w, req)
}

// Delete handles DELETE /api/clients/{id}
// Deleting an unknown ID succeeds.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid client ID", http.StatusBadRequest)
		return
	}

	if err := h.Clients.Mutate(func(list []models.Client) ([]models.Client, error) {
		return store.Filter(list, func(c models.Client) bool { return c.ID != id }), nil
	}); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	JSONResponse(w, map[string]interface{}{
		"message": "client deleted",
		"id":      id,
	})
}

// Push handles POST /api/clients/{id}/push
// Sends the client's monitoring configuration to the scanner backend.
func (h *ClientHandler) Push(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid client ID", http.StatusBadRequest)
		return
	}

	clients, err := h.Clients.Load()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var client *models.Client
	for i := range clients {
		if clients[i].ID == id {
			client = &clients[i]
			break
		}
	}
	if client == nil {
		JSONError(w, "client not found", http.StatusNotFound)
		return
	}

	payload := scanner.ClientPayload{
		Name:                  client.Name,
		NotificationRecipient: client.Email,
		MispEventTitle:        client.MispEventTitle,
		MispEventTags:         splitTags(client.MispEventTags),
		MispAPIKey:            client.MispAPIKey,
		ProcessedFilesFile:    fmt.Sprintf("processed_%d.json", client.ID),
		SearchString:          splitTags(client.MispEventTags),
	}

	if err := h.Scanner.PushClient(r.Context(), payload); err != nil {
		JSONError(w, err.Error(), http.StatusBadGateway)
		return
	}

	h.Bus.Publish(events.Event{
		Type:     events.ClientPushed,
		Severity: events.SeverityInfo,
		Message:  fmt.Sprintf("Client %q pushed to scanner", client.Name),
		Metadata: map[string]string{"client_id": strconv.FormatInt(client.ID, 10)},
	})

	JSONResponse(w, map[string]interface{}{
		"message": "client pushed to scanner",
		"client":  client,
	})
}

// Config handles GET /api/clients/config
// Proxies the scanner backend's active client configuration.
func (h *ClientHandler) Config(w http.ResponseWriter, r *http.Request) {
	configs, err := h.Scanner.ClientsConfig(r.Context())
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadGateway)
		return
	}

	JSONResponse(w, map[string]interface{}{
		"clients": configs,
		"count":   len(configs),
	})
}

// splitTags turns a comma-separated tag string into a trimmed slice.
func splitTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
