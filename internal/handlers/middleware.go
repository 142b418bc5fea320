package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"attendtrack/internal/auth"
	"attendtrack/internal/authz"
	"attendtrack/internal/metrics"
	"attendtrack/internal/models"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authenticator *auth.Authenticator
	gate          *authz.Gate
	metrics       *metrics.Metrics
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authenticator *auth.Authenticator, gate *authz.Gate, m *metrics.Metrics) *Middleware {
	return &Middleware{
		authenticator: authenticator,
		gate:          gate,
		metrics:       m,
	}
}

// RequireAuth is middleware that requires a valid bearer session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return m.require(authz.Authenticated, next)
}

// RequireAdmin is middleware that requires an admin principal
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.require(authz.AdminOnly, next)
}

// RequireClassAccess requires a principal allowed to act on the class named by
// the URL parameter param
func (m *Middleware) RequireClassAccess(param string, next http.HandlerFunc) http.HandlerFunc {
	return m.require(authz.TeacherScoped, func(w http.ResponseWriter, r *http.Request) {
		classID, ok := urlID(w, r, param)
		if !ok {
			return
		}
		if err := m.gate.AllowClass(GetPrincipalFromContext(r.Context()), classID); err != nil {
			m.deny(w, err)
			return
		}
		next(w, r)
	})
}

func (m *Middleware) require(req authz.Requirement, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.authenticator.Authenticate(r.Context(), r)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to resolve session", err)
			return
		}

		if err := m.gate.Check(principal, req); err != nil {
			m.deny(w, err)
			return
		}

		ctx := auth.WithPrincipal(r.Context(), principal)
		next(w, r.WithContext(ctx))
	}
}

func (m *Middleware) deny(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		m.rejected("unauthenticated")
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
	case errors.Is(err, authz.ErrDenied):
		m.rejected("denied")
		respondWithError(w, http.StatusForbidden, ErrAccessDenied, "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Authorization check failed", err)
	}
}

func (m *Middleware) rejected(reason string) {
	if m.metrics != nil {
		m.metrics.AuthRejected(reason)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests and records request metrics
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, elapsed)

		if m.metrics != nil {
			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			m.metrics.ObserveRequest(r.Method, route, rec.status, elapsed)
		}
	})
}

// GetPrincipalFromContext retrieves the principal from the request context
func GetPrincipalFromContext(ctx context.Context) *models.Principal {
	return auth.PrincipalFromContext(ctx)
}
