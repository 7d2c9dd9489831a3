package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/carshowcase/showcase/internal/metrics"
	"github.com/carshowcase/showcase/internal/model"
	"github.com/carshowcase/showcase/internal/service"
)

type contextKeyAuth string

const (
	// IdentityKey is the context key for the authenticated identity.
	IdentityKey contextKeyAuth = "auth_identity"
)

// Authenticator resolves a bearer token to the identity of a live user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Identity, error)
}

// Guard returns the middleware enforcing a route's declared access class.
// Public routes pass through without looking at credentials; owner routes
// require a valid bearer token; admin routes additionally require the admin
// flag. Record-level ownership is checked later by the resource services.
func Guard(auth Authenticator, access service.Access, rec metrics.Recorder) func(http.Handler) http.Handler {
	switch access {
	case service.AccessPublic:
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				rec.RecordGuardDecision(metrics.DecisionPublic)
				next.ServeHTTP(w, r)
			})
		}
	case service.AccessAdmin:
		return func(next http.Handler) http.Handler {
			return Authenticate(auth, rec)(RequireAdmin(rec)(next))
		}
	default:
		return Authenticate(auth, rec)
	}
}

// Authenticate returns an HTTP middleware that validates the Bearer token in
// the Authorization header. On success, the Identity is attached to the
// request context. On failure, a 401 JSON error response is returned.
func Authenticate(auth Authenticator, rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				rec.RecordGuardDecision(metrics.DecisionRejected)
				slog.WarnContext(r.Context(), "request rejected", "reason", "missing_token",
					"path", r.URL.Path, "request_id", GetRequestID(r.Context()))
				writeAuthError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}

			id, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					rec.RecordGuardDecision(metrics.DecisionRejected)
					slog.WarnContext(r.Context(), "request rejected", "reason", "invalid_token",
						"path", r.URL.Path, "request_id", GetRequestID(r.Context()))
					writeAuthError(w, http.StatusUnauthorized, "Authentication failed")
					return
				}
				rec.RecordGuardDecision(metrics.DecisionError)
				slog.ErrorContext(r.Context(), "resolve identity", "error", err,
					"request_id", GetRequestID(r.Context()))
				writeAuthError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			rec.RecordGuardDecision(metrics.DecisionAuthenticated)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin returns an HTTP middleware that enforces admin-level access.
// It must be used after Authenticate in the middleware chain.
func RequireAdmin(rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch err := service.Authorize(GetIdentity(r.Context()), service.AccessAdmin, ""); {
			case errors.Is(err, service.ErrUnauthorized):
				rec.RecordGuardDecision(metrics.DecisionRejected)
				writeAuthError(w, http.StatusUnauthorized, "Authentication failed")
				return
			case err != nil:
				rec.RecordGuardDecision(metrics.DecisionForbidden)
				writeAuthError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *model.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// GetIdentity extracts the authenticated identity from the context.
// Returns nil if no identity is present (i.e., unauthenticated request).
func GetIdentity(ctx context.Context) *model.Identity {
	if id, ok := ctx.Value(IdentityKey).(*model.Identity); ok {
		return id
	}
	return nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: status, Message: message},
	})
}
