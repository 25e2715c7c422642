package oidc

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/benvon/tasklist/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	// ErrInvalidToken is returned for tokens that fail parsing, signature or claim validation
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmailNotVerified is returned when the provider reports an unverified email
	ErrEmailNotVerified = errors.New("email not verified")
)

// Verifier verifies provider-issued JWTs against the provider's JWKS
type Verifier struct {
	jwksManager *JWKSManager
	jwksURL     string
	issuer      string
	audience    string
}

// NewVerifier creates a JWT verifier. An empty audience skips the aud check.
func NewVerifier(jwksManager *JWKSManager, jwksURL, issuer, audience string) *Verifier {
	return &Verifier{
		jwksManager: jwksManager,
		jwksURL:     jwksURL,
		issuer:      issuer,
		audience:    audience,
	}
}

// Verify checks the token signature, expiry, issuer and audience and returns its claims.
// Tokens whose email_verified claim is false are rejected.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := v.parse(ctx, tokenString)
	if err != nil {
		// keys may have been rotated; retry once against a fresh key set
		v.jwksManager.Invalidate(v.jwksURL)
		token, err = v.parse(ctx, tokenString)
		if err != nil {
			return nil, err
		}
	}

	claims := &models.JWTClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
	}
	if aud := token.Audience(); len(aud) > 0 {
		claims.Aud = aud[0]
	}
	if exp := token.Expiration(); !exp.IsZero() {
		claims.Exp = exp.Unix()
	}
	if iat := token.IssuedAt(); !iat.IsZero() {
		claims.Iat = iat.Unix()
	}
	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}
	if name, ok := token.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Name = nameStr
		}
	}
	if raw, ok := token.Get("email_verified"); ok {
		verified, ok := parseBoolClaim(raw)
		if ok {
			claims.EmailVerified = &verified
		}
	}

	if claims.Sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return claims, nil
}

func (v *Verifier) parse(ctx context.Context, tokenString string) (jwt.Token, error) {
	keys, err := v.jwksManager.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return token, nil
}

// some providers send email_verified as the string "true"
func parseBoolClaim(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	}
	return false, false
}
