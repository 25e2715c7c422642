package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a signed-in identity. The ID scopes every todo record.
type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	ProviderID    *string   `json:"provider_id,omitempty"`
	Name          *string   `json:"name,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DisplayName returns the user's name, falling back to the local part of the email
func (u *User) DisplayName() string {
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		return *u.Name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}
