package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"hunter/internal/events"
	"hunter/internal/models"
	"hunter/internal/store"
)

// UserHandler serves the managed-user collection shown on the admin
// user-management screen. These are display records, not login accounts.
type UserHandler struct {
	Users *store.Collection[models.ManagedUser]
	Bus   *events.Bus
}

// NewUserHandler creates a new managed-user handler
func NewUserHandler(users *store.Collection[models.ManagedUser], bus *events.Bus) *UserHandler {
	return &UserHandler{Users: users, Bus: bus}
}

// List handles GET /api/users
// Query params: q (username filter)
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.Load()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		users = store.Filter(users, func(u models.ManagedUser) bool {
			return store.MatchFold(q, u.Username, u.Role)
		})
	}

	JSONResponse(w, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var user models.ManagedUser
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if user.Role == "" {
		user.Role = models.ManagedRoleMonitor
	}
	if err := store.ValidateManagedUser(user); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.Users.NextID()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	user.ID = id

	err = h.Users.Mutate(func(list []models.ManagedUser) ([]models.ManagedUser, error) {
		for _, existing := range list {
			if strings.EqualFold(existing.Username, user.Username) {
				return nil, fmt.Errorf("user %q already exists", user.Username)
			}
		}
		return append(list, user), nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			JSONError(w, err.Error(), http.StatusConflict)
			return
		}
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("👤 User %s (%s) created by %s", user.Username, user.Role, getUsernameFromRequest(r))
	h.Bus.Publish(events.Event{
		Type:     events.UserCreated,
		Severity: events.SeverityInfo,
		Message:  fmt.Sprintf("User %q added", user.Username),
	})

	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, user)
}

// Update handles PUT /api/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	var req models.ManagedUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.ID = id
	if err := store.ValidateManagedUser(req); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var found bool
	err = h.Users.Mutate(func(list []models.ManagedUser) ([]models.ManagedUser, error) {
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
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		JSONError(w, "user not found", http.StatusNotFound)
		return
	}

	JSONResponse(w, req)
}

// Delete handles DELETE /api/users/{id}
// Deleting an unknown ID succeeds.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.Users.Mutate(func(list []models.ManagedUser) ([]models.ManagedUser, error) {
		return store.Filter(list, func(u models.ManagedUser) bool { return u.ID != id }), nil
	}); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	JSONResponse(w, map[string]interface{}{
		"message": "user deleted",
		"id":      id,
	})
}
