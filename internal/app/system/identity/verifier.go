// internal/app/system/identity/verifier.go
// Package identity bridges the external identity provider to the app.
//
// The Verifier checks ID tokens issued by the hosted auth provider (RS256,
// keys fetched from the provider's JWKS endpoint). The Minter issues the
// data-store credential whose subject is the verified stable identifier.
// The subject is the only claim that may drive authorization; the profile
// claims are carried for display purposes only.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the verified assertions from an identity-provider ID token.
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// StableID returns the stable user identifier.
func (c *Claims) StableID() string { return c.Subject }

// Config holds identity-provider verification settings.
type Config struct {
	// Issuer is the provider's issuer URL, e.g. "https://auth.example.com".
	Issuer string
	// Audience the tokens must be scoped to.
	Audience string
}

// Verifier validates externally issued ID tokens.
type Verifier struct {
	issuer   string
	audience string
	keyfunc  jwt.Keyfunc
}

// NewVerifier builds a Verifier that resolves signing keys from the
// provider's JWKS endpoint (<issuer>/.well-known/jwks.json).
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}

	issuer := strings.TrimSuffix(cfg.Issuer, "/")
	jwks := NewJWKSCache(issuer + "/.well-known/jwks.json")

	v := &Verifier{issuer: issuer, audience: cfg.Audience}
	v.keyfunc = func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("missing kid in token header")
		}
		return jwks.GetKey(context.Background(), kid)
	}
	return v, nil
}

// NewVerifierWithKeyfunc builds a Verifier with a caller-supplied key
// resolver. Used by tests and by deployments that pin a static key.
func NewVerifierWithKeyfunc(cfg Config, kf jwt.Keyfunc) (*Verifier, error) {
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("issuer and audience are required")
	}
	return &Verifier{
		issuer:   strings.TrimSuffix(cfg.Issuer, "/"),
		audience: cfg.Audience,
		keyfunc:  kf,
	}, nil
}

// Verify parses and validates an ID token, returning its claims.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if !v.verifyAudience(claims) {
		return nil, errors.New("invalid audience")
	}
	if strings.TrimSuffix(claims.Issuer, "/") != v.issuer {
		return nil, fmt.Errorf("invalid issuer: expected %s, got %s", v.issuer, claims.Issuer)
	}
	return claims, nil
}

func (v *Verifier) verifyAudience(claims *Claims) bool {
	for _, aud := range claims.Audience {
		if aud == v.audience {
			return true
		}
	}
	return false
}
