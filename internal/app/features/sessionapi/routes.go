// internal/app/features/sessionapi/routes.go
package sessionapi

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the session exchange endpoints.
// Mounted under /api/session. Both verbs are reachable without an existing
// session: POST creates one and DELETE of nothing is a no-op.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Exchange)
	r.Delete("/", h.Logout)
	return r
}
