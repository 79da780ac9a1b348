// internal/app/features/ai/routes.go
package ai

import (
	"github.com/go-chi/chi/v5"
	"github.com/inkwellhq/inkwell/internal/app/system/auth"
)

// Routes returns a subrouter for the assistant endpoints.
// Mounted under /api/ai; every route requires a signed-in session.
func Routes(h *Handler, sessions *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sessions.RequireSignedIn)

	r.Get("/providers", h.ListProviders)
	r.Post("/{roomID}/chat", h.Chat)
	r.Get("/{roomID}/history", h.History)

	return r
}
