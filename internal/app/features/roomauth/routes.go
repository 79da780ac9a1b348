// internal/app/features/roomauth/routes.go
package roomauth

import (
	"github.com/go-chi/chi/v5"
	"github.com/inkwellhq/inkwell/internal/app/system/auth"
)

// Routes returns a subrouter for the room authorization endpoints.
// Mounted under /api/rooms. The confirm webhook authenticates by grant
// reference, not by session, so it sits outside the signed-in group.
func Routes(h *Handler, sessions *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(sessions.RequireSignedIn)
		r.Post("/auth", h.Authorize)
		r.Get("/grants", h.ListGrants)
	})
	r.Post("/confirm", h.Confirm)
	return r
}
