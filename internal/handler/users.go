package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carshowcase/showcase/internal/model"
	"github.com/carshowcase/showcase/internal/server/middleware"
	"github.com/carshowcase/showcase/internal/service"
)

const msgUserNotFound = "User not found"

// UserHandler serves account management under /api/users.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List returns every account.
// GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Create adds an account on behalf of an admin.
// POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.NewUser
	if err := readJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	user, err := h.users.Create(r.Context(), middleware.GetIdentity(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Profile returns the caller's own account.
// GET /api/users/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	user, err := h.users.Get(r.Context(), id, id.ID)
	if err != nil {
		writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Get returns a single account.
// GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), middleware.GetIdentity(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update applies a partial change to an account.
// PATCH /api/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UserUpdate
	if err := readJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	user, err := h.users.Update(r.Context(), middleware.GetIdentity(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete removes an account and everything it owns.
// DELETE /api/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	resp, err := h.users.Remove(r.Context(), middleware.GetIdentity(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
