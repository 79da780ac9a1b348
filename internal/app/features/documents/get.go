// internal/app/features/documents/get.go
package documents

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inkwellhq/inkwell/internal/app/policy/roompolicy"
	"github.com/inkwellhq/inkwell/internal/app/reconcile"
	"github.com/inkwellhq/inkwell/internal/app/store/audit"
	"github.com/inkwellhq/inkwell/internal/app/system/apperr"
	"github.com/inkwellhq/inkwell/internal/app/system/authz"
	"github.com/inkwellhq/inkwell/internal/app/system/httpjson"
	"github.com/inkwellhq/inkwell/internal/app/system/inputval"
	"github.com/inkwellhq/inkwell/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// Get handles GET /api/documents/{roomID}.
//
// Reads double as the owner-loss repair point: before the membership check
// we give the requester's membership a chance to be promoted if the room
// has no owner left. The heal is read-mostly; rooms with an owner cost one
// extra count.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := authz.UserCtx(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	roomID := chi.URLParam(r, "roomID")
	if !inputval.IsValidRoomID(roomID) {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeValidation, "invalid room id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	healed, err := reconcile.EnsureRoomHasOwner(ctx, h.Docs, h.Members, h.Log, u.Subject, roomID)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	if healed {
		h.Audit.RoomEvent(ctx, r, audit.EventOwnerHealed, u.Subject, roomID, nil)
	}

	m, err := roompolicy.RequireMember(ctx, h.Members, u.Subject, roomID)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	doc, err := h.Docs.Get(ctx, roomID)
	if err == mongo.ErrNoDocuments {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeNotFound, "document not found"))
		return
	}
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	httpjson.Write(w, http.StatusOK, docResponse(*doc, m.Role))
}

// List handles GET /api/documents. It returns every document the requester
// has a membership on, most recently updated first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := authz.UserCtx(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	memberships, err := h.Members.ForUser(ctx, u.Subject)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	roomIDs := make([]string, 0, len(memberships))
	roles := make(map[string]string, len(memberships))
	for _, m := range memberships {
		roomIDs = append(roomIDs, m.RoomID)
		roles[m.RoomID] = m.Role
	}

	docs, err := h.Docs.ListByRoomIDs(ctx, roomIDs)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	views := make([]documentView, 0, len(docs))
	for _, d := range docs {
		views = append(views, docResponse(d, roles[d.RoomID]))
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"documents": views})
}
