// Package auth resolves the principal behind a request's bearer token.
package auth

import (
	"context"
	"net/http"

	"attendtrack/internal/models"
	"attendtrack/internal/security"
	"attendtrack/internal/session"
)

// Authenticator resolves bearer tokens through a session store
type Authenticator struct {
	sessions session.Store
}

// NewAuthenticator creates an authenticator over store
func NewAuthenticator(store session.Store) *Authenticator {
	return &Authenticator{sessions: store}
}

// Authenticate returns the request's principal.
//
//   - (principal, nil): the token maps to a live session
//   - (nil, nil): no usable bearer token, or the session is unknown or expired
//   - (nil, err): the session store failed
//
// A request without a well-formed Bearer header never reaches the store.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) (*models.Principal, error) {
	token := security.BearerToken(r)
	if token == "" {
		return nil, nil
	}
	user, err := a.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return user.Principal(), nil
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal, or nil
func PrincipalFromContext(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalKey).(*models.Principal)
	return p
}
