package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/tasklist/internal/database"
	logpkg "github.com/benvon/tasklist/internal/logger"
	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/request"
	"github.com/benvon/tasklist/internal/services/oidc"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenVerifier verifies a bearer token issued by the identity provider
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

// Auth creates authentication middleware. It verifies the bearer token, then
// resolves the provider subject to a local user, creating one on first sign-in.
func Auth(verifier TokenVerifier, users database.UserRepositoryInterface, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondError(w, http.StatusUnauthorized, "Missing or malformed Authorization header")
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, tokenString)
			if errors.Is(err, oidc.ErrEmailNotVerified) {
				respondError(w, http.StatusForbidden, "Email address is not verified")
				return
			}
			if err != nil {
				logger.Info("token_verification_failed",
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			user, err := resolveUser(ctx, users, claims, logger)
			if err != nil {
				logger.Error("failed_to_resolve_user",
					zap.String("subject", logpkg.SanitizeUserID(claims.Sub)),
					zap.Error(err),
				)
				respondError(w, http.StatusInternalServerError, "Failed to load user")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// resolveUser returns the local user for the token subject, creating it when
// missing and refreshing email/name when the provider reports new values
func resolveUser(ctx context.Context, users database.UserRepositoryInterface, claims *models.JWTClaims, logger *zap.Logger) (*models.User, error) {
	user, err := users.GetByProviderID(ctx, claims.Sub)
	if errors.Is(err, database.ErrNotFound) {
		sub := claims.Sub
		user = &models.User{
			ID:            uuid.New(),
			Email:         claims.Email,
			ProviderID:    &sub,
			EmailVerified: claims.EmailVerified == nil || *claims.EmailVerified,
		}
		if claims.Name != "" {
			name := claims.Name
			user.Name = &name
		}
		if err := users.Create(ctx, user); err != nil {
			return nil, err
		}
		logger.Info("user_created", zap.String("user_id", user.ID.String()))
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	updateNeeded := false
	if claims.Email != "" && user.Email != claims.Email {
		user.Email = claims.Email
		updateNeeded = true
	}
	if claims.Name != "" && (user.Name == nil || *user.Name != claims.Name) {
		name := claims.Name
		user.Name = &name
		updateNeeded = true
	}
	if updateNeeded {
		if err := users.Update(ctx, user); err != nil {
			// stale profile fields are not worth failing the request over
			logger.Warn("failed_to_update_user", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}
	return user, nil
}

// respondError writes the same error envelope the handlers use
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":   false,
		"error":     http.StatusText(status),
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
