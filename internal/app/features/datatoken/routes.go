// internal/app/features/datatoken/routes.go
package datatoken

import (
	"github.com/go-chi/chi/v5"
	"github.com/inkwellhq/inkwell/internal/app/system/auth"
)

// Routes returns a subrouter for the data-store token endpoints.
// Mounted under /api/datastore-token. The verify webhook authenticates by
// the token itself, so it sits outside the signed-in group.
func Routes(h *Handler, sessions *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(sessions.RequireSignedIn)
		r.Get("/", h.Mint)
	})
	r.Post("/verify", h.Verify)
	return r
}
