package models

// JWTClaims represents the claims extracted from a provider-issued token
type JWTClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified,omitempty"` // nil when the provider omits the claim
	Name          string `json:"name"`
	Exp           int64  `json:"exp"`
	Iat           int64  `json:"iat"`
	Iss           string `json:"iss"`
	Aud           string `json:"aud"`
}
