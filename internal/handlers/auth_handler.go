package handlers

import (
	"errors"
	"net/http"

	"attendtrack/internal/metrics"
	"attendtrack/internal/models"
	"attendtrack/internal/security"
	"attendtrack/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	metrics     *metrics.Metrics
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		metrics:     m,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string            `json:"token"`
	User  *models.Principal `json:"user"`
}

// Login exchanges a username (or email) and password for a session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.loginAttempt("invalid")
		respondWithError(w, http.StatusUnauthorized, ErrInvalidCredentials, "", nil)
		return
	}
	if err != nil {
		h.loginAttempt("error")
		respondWithError(w, http.StatusInternalServerError, "Login failed", "Login error", err)
		return
	}

	h.loginAttempt("success")
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user.Principal()})
}

// Logout revokes the caller's session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), security.BearerToken(r)); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Logout failed", "", err)
		return
	}
	writeMessage(w, "Logged out successfully")
}

// Me returns the caller's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(GetPrincipalFromContext(r.Context()))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load profile", err)
		return
	}
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, user.Principal())
}

func (h *AuthHandler) loginAttempt(result string) {
	if h.metrics != nil {
		h.metrics.LoginAttempt(result)
	}
}
