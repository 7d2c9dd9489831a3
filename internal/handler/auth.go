package handler

import (
	"errors"
	"net/http"

	"github.com/carshowcase/showcase/internal/metrics"
	"github.com/carshowcase/showcase/internal/model"
	"github.com/carshowcase/showcase/internal/server/middleware"
	"github.com/carshowcase/showcase/internal/service"
)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	auth    *service.AuthService
	metrics metrics.Recorder
}

// NewAuthHandler creates a new AuthHandler. A nil recorder disables metrics.
func NewAuthHandler(auth *service.AuthService, rec metrics.Recorder) *AuthHandler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AuthHandler{auth: auth, metrics: rec}
}

// Register creates a regular account.
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.Registration
	if err := readJSON(w, r, &req); err != nil {
		h.metrics.RecordRegistration(metrics.OutcomeInvalid)
		writeBadBody(w, err)
		return
	}

	resp, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.metrics.RecordRegistration(registrationOutcome(err))
		writeServiceError(w, r, err, "Not found")
		return
	}

	h.metrics.RecordRegistration(metrics.OutcomeSuccess)
	writeJSON(w, http.StatusCreated, resp)
}

// Login exchanges an email and password for an access token.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := readJSON(w, r, &req); err != nil {
		h.metrics.RecordLogin(metrics.OutcomeInvalid)
		writeBadBody(w, err)
		return
	}

	if req.Email == "" || req.Password == "" {
		h.metrics.RecordLogin(metrics.OutcomeRejected)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	user, err := h.auth.ValidateCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.metrics.RecordLogin(metrics.OutcomeRejected)
		} else {
			h.metrics.RecordLogin(metrics.OutcomeError)
		}
		writeServiceError(w, r, err, "Not found")
		return
	}

	resp, err := h.auth.Login(r.Context(), user)
	if err != nil {
		h.metrics.RecordLogin(metrics.OutcomeError)
		writeServiceError(w, r, err, "Not found")
		return
	}

	h.metrics.RecordLogin(metrics.OutcomeSuccess)
	writeJSON(w, http.StatusOK, resp)
}

// Logout acknowledges the caller's logout. The route is guarded, so an
// identity is always present.
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.auth.Logout(r.Context(), middleware.GetIdentity(r.Context())))
}

func registrationOutcome(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return metrics.OutcomeInvalid
	case errors.Is(err, service.ErrConflict):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
