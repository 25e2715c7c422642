package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/request"
	"github.com/google/uuid"
)

func TestUserFromContext(t *testing.T) {
	t.Parallel()

	signedIn := &models.User{ID: uuid.New(), Email: "owner@example.com"}

	tests := []struct {
		name   string
		ctx    func(context.Context) context.Context
		want   *models.User
		wantID bool
	}{
		{
			name:   "signed in",
			ctx:    func(ctx context.Context) context.Context { return SetUserInContext(ctx, signedIn) },
			want:   signedIn,
			wantID: true,
		},
		{
			name: "anonymous",
			ctx:  func(ctx context.Context) context.Context { return ctx },
		},
		{
			name: "foreign value under the user key",
			ctx: func(ctx context.Context) context.Context {
				return context.WithValue(ctx, request.UserContextKey(), signedIn.Email)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
			req = req.WithContext(tt.ctx(req.Context()))

			if got := UserFromContext(req); got != tt.want {
				t.Errorf("UserFromContext() = %+v, want %+v", got, tt.want)
			}
			id, ok := request.UserID(req)
			if ok != tt.wantID {
				t.Errorf("UserID() ok = %v, want %v", ok, tt.wantID)
			}
			if ok && id != signedIn.ID {
				t.Errorf("UserID() = %s, want %s", id, signedIn.ID)
			}
		})
	}
}

func TestUserIDRequiresID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
	req = req.WithContext(SetUserInContext(req.Context(), &models.User{Email: "pending@example.com"}))
	if _, ok := request.UserID(req); ok {
		t.Error("Expected a user without an id to have no todo scope")
	}
}
