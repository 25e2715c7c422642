package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/tasklist/internal/middleware"
	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/services/oidc"
	"github.com/benvon/tasklist/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type fakeExchanger struct {
	token string
	err   error
}

func (f *fakeExchanger) ExchangeIDToken(ctx context.Context, code string) (string, error) {
	return f.token, f.err
}

func (f *fakeExchanger) LoginConfig() *oidc.LoginConfig {
	return &oidc.LoginConfig{ClientID: "client-123", Scope: "openid email profile"}
}

type stubVerifier struct {
	claims *models.JWTClaims
	err    error
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (*models.JWTClaims, error) {
	return s.claims, s.err
}

func newAuthRouter(h *AuthHandler) *mux.Router {
	r := mux.NewRouter()
	h.RegisterPublicRoutes(r.PathPrefix("/api/v1/auth").Subrouter())
	return r
}

func TestAuthHandler_GetOIDCLogin(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(&fakeExchanger{}, &stubVerifier{}, nil, nil)
	w := httptest.NewRecorder()
	newAuthRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/oidc/login", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var cfg oidc.LoginConfig
	decodeData(t, w, &cfg)
	if cfg.ClientID != "client-123" {
		t.Errorf("Expected client id, got %+v", cfg)
	}
}

func TestAuthHandler_Callback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		exchange *fakeExchanger
		verifier *stubVerifier
		want     int
	}{
		{
			name:     "success",
			path:     "/api/v1/auth/callback?code=abc",
			exchange: &fakeExchanger{token: "id-token"},
			verifier: &stubVerifier{claims: &models.JWTClaims{Sub: "sub-1", Email: "user@example.com"}},
			want:     http.StatusOK,
		},
		{
			name:     "missing code",
			path:     "/api/v1/auth/callback",
			exchange: &fakeExchanger{token: "id-token"},
			verifier: &stubVerifier{},
			want:     http.StatusBadRequest,
		},
		{
			name:     "exchange fails",
			path:     "/api/v1/auth/callback?code=abc",
			exchange: &fakeExchanger{err: errors.New("invalid_grant")},
			verifier: &stubVerifier{},
			want:     http.StatusUnauthorized,
		},
		{
			name:     "token rejected",
			path:     "/api/v1/auth/callback?code=abc",
			exchange: &fakeExchanger{token: "id-token"},
			verifier: &stubVerifier{err: oidc.ErrInvalidToken},
			want:     http.StatusUnauthorized,
		},
		{
			name:     "email not verified",
			path:     "/api/v1/auth/callback?code=abc",
			exchange: &fakeExchanger{token: "id-token"},
			verifier: &stubVerifier{err: oidc.ErrEmailNotVerified},
			want:     http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewAuthHandler(tt.exchange, tt.verifier, nil, nil)
			w := httptest.NewRecorder()
			newAuthRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.want {
				t.Fatalf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if tt.want == http.StatusOK {
				var resp TokenResponse
				decodeData(t, w, &resp)
				if resp.IDToken != "id-token" || resp.Email != "user@example.com" {
					t.Errorf("Unexpected token response %+v", resp)
				}
			}
		})
	}
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	t.Parallel()

	remote := newMemRemote()
	sessions := session.NewManager(remote, nil, session.Policy{})
	h := NewAuthHandler(&fakeExchanger{}, &stubVerifier{}, sessions, nil)
	user := &models.User{ID: uuid.New(), Email: "user@example.com"}

	if _, err := sessions.Open(context.Background(), user.ID); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(middleware.SetUserInContext(req.Context(), user))
	w := httptest.NewRecorder()
	h.GetMe(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var me models.User
	decodeData(t, w, &me)
	if me.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, me.ID)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.SetUserInContext(req.Context(), user))
	w = httptest.NewRecorder()
	h.Logout(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
	if _, ok := sessions.Lookup(user.ID); ok {
		t.Error("Expected session to be closed on logout")
	}

	w = httptest.NewRecorder()
	h.GetMe(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without user, got %d", w.Code)
	}
}
