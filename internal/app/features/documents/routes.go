// internal/app/features/documents/routes.go
package documents

import (
	"github.com/go-chi/chi/v5"
	"github.com/inkwellhq/inkwell/internal/app/system/auth"
)

// Routes returns a subrouter for the document endpoints.
// Mounted under /api/documents; every route requires a signed-in session.
func Routes(h *Handler, sessions *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sessions.RequireSignedIn)

	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{roomID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.UpdateMeta)
		r.Delete("/", h.Delete)
		r.Post("/invite", h.Invite)
		r.Post("/publish", h.Publish)
		r.Post("/role", h.ChangeRole)
		r.Get("/members", h.ListMembers)
		r.Delete("/members/{subject}", h.RemoveMember)
	})

	return r
}
