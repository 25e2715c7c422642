package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/tasklist/internal/middleware"
	"github.com/benvon/tasklist/internal/services/oidc"
	"github.com/benvon/tasklist/internal/session"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CodeExchanger trades an authorization code for a raw id_token
type CodeExchanger interface {
	ExchangeIDToken(ctx context.Context, code string) (string, error)
	LoginConfig() *oidc.LoginConfig
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	client   CodeExchanger
	verifier middleware.TokenVerifier
	sessions *session.Manager
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(client CodeExchanger, verifier middleware.TokenVerifier, sessions *session.Manager, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{client: client, verifier: verifier, sessions: sessions, logger: logger}
}

// RegisterPublicRoutes registers the routes used before a token exists
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/oidc/login", h.GetOIDCLogin).Methods("GET")
	r.HandleFunc("/callback", h.Callback).Methods("GET")
}

// RegisterRoutes registers the routes that require a signed-in user
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
	r.HandleFunc("/logout", h.Logout).Methods("POST")
}

// TokenResponse carries the verified id_token back to the frontend
type TokenResponse struct {
	IDToken string `json:"id_token"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
}

// GetOIDCLogin returns OIDC configuration for frontend
func (h *AuthHandler) GetOIDCLogin(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.client.LoginConfig())
}

// Callback completes the authorization-code flow
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Missing authorization code")
		return
	}

	ctx := r.Context()
	idToken, err := h.client.ExchangeIDToken(ctx, code)
	if err != nil {
		h.logger.Warn("oidc_code_exchange_failed", zap.Error(err))
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Failed to exchange authorization code")
		return
	}

	claims, err := h.verifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, oidc.ErrEmailNotVerified) {
			respondJSONError(w, http.StatusForbidden, "Forbidden", "Email address is not verified")
			return
		}
		h.logger.Warn("oidc_token_rejected", zap.Error(err))
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Invalid id_token")
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{IDToken: idToken, Email: claims.Email, Name: claims.Name})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Logout clears the user's local todo list. The next request loads it again.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	h.sessions.Close(user.ID)
	w.WriteHeader(http.StatusNoContent)
}
