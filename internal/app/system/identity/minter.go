// internal/app/system/identity/minter.go
package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DataStoreTokenTTL bounds the data-store credential lifetime. Clients
// re-mint when it expires; the app session outlives it.
const DataStoreTokenTTL = time.Hour

// Minter issues the signed data-store credential for a verified app session.
// The subject of every minted token equals the app-auth stable identifier,
// which is the only value the data layer's access rules may trust. Profile
// claims are display-only.
type Minter struct {
	key    []byte
	issuer string
}

// NewMinter creates a Minter with the service signing key.
func NewMinter(key, issuer string) (*Minter, error) {
	if len(key) < 32 {
		return nil, errors.New("data token key must be at least 32 bytes")
	}
	if issuer == "" {
		return nil, errors.New("issuer is required")
	}
	return &Minter{key: []byte(key), issuer: issuer}, nil
}

// Profile is the denormalized display data stamped onto a token.
type Profile struct {
	Name      string
	Email     string
	AvatarURL string
}

// Mint signs a time-bounded data-store token for subject.
func (m *Minter) Mint(subject string, p Profile) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(DataStoreTokenTTL)),
		},
		Email:   p.Email,
		Name:    p.Name,
		Picture: p.AvatarURL,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// VerifyMinted checks a token this service issued and returns its claims.
// The data layer uses this when evaluating access rules.
func (m *Minter) VerifyMinted(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.key, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
