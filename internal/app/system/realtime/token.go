// internal/app/system/realtime/token.go
// Package realtime issues capability tokens for the hosted real-time layer.
//
// The server never relays document edits itself; it only decides who may
// join a room and hands out a time-bounded token granting full read/write on
// that room's channel. Presence labels (cursor name, avatar) come from the
// app-auth session, never from the document store, and fall back to
// sentinels so a missing profile cannot fail a join.
package realtime

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoomTokenTTL bounds a capability token's lifetime.
const RoomTokenTTL = time.Hour

// Presence sentinels used when the session carries no profile data.
const (
	DefaultName  = "noName"
	DefaultEmail = "noEmail"
)

// Presence is the display info attached to a user's cursor and avatar.
type Presence struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar"`
}

// PresenceFor builds presence info from session display data, applying the
// sentinels for missing fields.
func PresenceFor(name, email, avatarURL string) Presence {
	p := Presence{Name: name, Email: email, AvatarURL: avatarURL}
	if p.Name == "" {
		p.Name = DefaultName
	}
	if p.Email == "" {
		p.Email = DefaultEmail
	}
	return p
}

// RoomClaims are the claims inside a room capability token.
type RoomClaims struct {
	jwt.RegisteredClaims
	RoomID   string   `json:"room_id"`
	Presence Presence `json:"presence"`
}

// Authorization is the payload returned to the client on a successful join.
type Authorization struct {
	Token     string    `json:"token"`
	RoomID    string    `json:"room"`
	Actor     Presence  `json:"actor"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issuer signs room capability tokens.
type Issuer struct {
	key    []byte
	issuer string
}

// NewIssuer creates an Issuer with the service signing key.
func NewIssuer(key, issuer string) (*Issuer, error) {
	if len(key) < 32 {
		return nil, errors.New("realtime token key must be at least 32 bytes")
	}
	if issuer == "" {
		return nil, errors.New("issuer is required")
	}
	return &Issuer{key: []byte(key), issuer: issuer}, nil
}

// Grant issues a full read/write capability for (subject, roomID). The
// membership check has already happened; Grant does no authorization itself.
func (i *Issuer) Grant(subject, roomID string, p Presence) (Authorization, error) {
	if subject == "" || roomID == "" {
		return Authorization{}, errors.New("subject and room are required")
	}
	now := time.Now()
	exp := now.Add(RoomTokenTTL)
	claims := &RoomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		RoomID:   roomID,
		Presence: p,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return Authorization{}, err
	}
	return Authorization{
		Token:     tok,
		RoomID:    roomID,
		Actor:     p,
		ExpiresAt: exp,
	}, nil
}

// Validate checks a capability token and returns its claims. The real-time
// layer's webhook uses this to confirm tokens this service issued.
func (i *Issuer) Validate(tokenString string) (*RoomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RoomClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.key, nil
	}, jwt.WithIssuer(i.issuer))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*RoomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
