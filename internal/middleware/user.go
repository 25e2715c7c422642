package middleware

import (
	"context"
	"net/http"

	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/request"
)

// UserFromContext returns the user Auth attached, or nil
func UserFromContext(r *http.Request) *models.User {
	return request.UserFromContext(r)
}

// SetUserInContext attaches user the way Auth does. Handler tests use it to
// skip token verification.
func SetUserInContext(ctx context.Context, user *models.User) context.Context {
	return request.WithUser(ctx, user)
}
