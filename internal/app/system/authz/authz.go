// internal/app/system/authz/authz.go
// Package authz extracts the authenticated identity from a request.
//
// Unlike a global-role system, room permissions here live on the membership
// records and are checked inside store transactions (see policy/roompolicy).
// This package only answers "who is calling?" — the subject is the sole
// trusted key; name/email are display data.
package authz

import (
	"net/http"

	"github.com/inkwellhq/inkwell/internal/app/system/auth"
)

// Identity is the caller's identity as the feature handlers see it. Subject
// is the stable identifier; the profile fields are display-only.
type Identity struct {
	Subject   string
	Name      string
	Email     string
	AvatarURL string
}

// UserCtx returns the caller's identity. ok=false means the request carries
// no authenticated user; callers must treat that as UNAUTHORIZED, never fall
// back to email matching.
func UserCtx(r *http.Request) (Identity, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.ID == "" {
		return Identity{}, false
	}
	return Identity{
		Subject:   u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}, true
}
