// internal/testutil/http.go
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/inkwellhq/inkwell/internal/app/system/auth"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	Subject   string
	Name      string
	Email     string
	AvatarURL string
}

// EditorUser returns a TestUser suitable for most handler tests.
func EditorUser() TestUser {
	return TestUser{
		Subject: "user_editor",
		Name:    "Test Editor",
		Email:   "editor@test.com",
	}
}

// OwnerUser returns a TestUser used as a room owner in handler tests.
func OwnerUser() TestUser {
	return TestUser{
		Subject: "user_owner",
		Name:    "Test Owner",
		Email:   "owner@test.com",
	}
}

// AuthenticatedRequest creates a request with the user injected into the
// context, bypassing the session middleware.
func AuthenticatedRequest(method, target string, body io.Reader, u TestUser) *http.Request {
	r := httptest.NewRequest(method, target, body)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:        u.Subject,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	})
}

// JSONRequest creates an unauthenticated request with a JSON body.
func JSONRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}
