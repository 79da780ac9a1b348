// internal/app/features/documents/members.go
package documents

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inkwellhq/inkwell/internal/app/policy/roompolicy"
	"github.com/inkwellhq/inkwell/internal/app/store/audit"
	"github.com/inkwellhq/inkwell/internal/app/system/apperr"
	"github.com/inkwellhq/inkwell/internal/app/system/authz"
	"github.com/inkwellhq/inkwell/internal/app/system/httpjson"
	"github.com/inkwellhq/inkwell/internal/app/system/inputval"
	"github.com/inkwellhq/inkwell/internal/app/system/timeouts"
	"github.com/inkwellhq/inkwell/internal/app/system/txn"
	"github.com/inkwellhq/inkwell/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Members handles GET /api/documents/{roomID}/members. Any member can see
// who else is in the room.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
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

	if _, err := roompolicy.RequireMember(ctx, h.Members, u.Subject, roomID); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	all, err := h.Members.ForRoom(ctx, roomID)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	views := make([]memberView, 0, len(all))
	for _, m := range all {
		views = append(views, memberResponse(m))
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"members": views})
}

// RemoveMember handles DELETE /api/documents/{roomID}/members/{subject}.
//
// Owner-only, like every other membership mutation; an editor cannot remove
// anyone, themselves included. The last owner stays: the guard and the
// delete run in the same transaction.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	u, ok := authz.UserCtx(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	roomID := chi.URLParam(r, "roomID")
	target := chi.URLParam(r, "subject")
	if !inputval.IsValidRoomID(roomID) || target == "" {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeValidation, "invalid room or user id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err := txn.WithTransaction(ctx, h.Client, func(ctx context.Context) error {
		if _, err := roompolicy.RequireOwner(ctx, h.Members, u.Subject, roomID); err != nil {
			return err
		}

		if _, err := h.Members.Get(ctx, target, roomID); err == mongo.ErrNoDocuments {
			return apperr.New(apperr.CodeNotFound, "membership not found")
		} else if err != nil {
			return err
		}

		if err := roompolicy.CheckNotLastOwner(ctx, h.Members, target, roomID); err != nil {
			return err
		}
		return h.Members.Delete(ctx, target, roomID)
	})
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	h.Audit.RoomEvent(ctx, r, audit.EventUserRemoved, u.Subject, roomID, map[string]string{"removed": target})
	httpjson.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

type roleRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// ChangeRole handles POST /api/documents/{roomID}/role.
//
// Only owners change roles. Demoting the last owner is rejected by the same
// in-transaction guard that protects removal.
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
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

	var req roleRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	if req.UserID == "" || !models.IsValidRole(req.Role) {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeValidation, `role must be "owner" or "editor"`))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err := txn.WithTransaction(ctx, h.Client, func(ctx context.Context) error {
		if _, err := roompolicy.RequireOwner(ctx, h.Members, u.Subject, roomID); err != nil {
			return err
		}

		current, err := h.Members.Get(ctx, req.UserID, roomID)
		if err == mongo.ErrNoDocuments {
			return apperr.New(apperr.CodeNotFound, "membership not found")
		}
		if err != nil {
			return err
		}
		if current.Role == req.Role {
			return nil
		}
		if current.Role == models.RoleOwner && req.Role != models.RoleOwner {
			if err := roompolicy.CheckNotLastOwner(ctx, h.Members, req.UserID, roomID); err != nil {
				return err
			}
		}
		return h.Members.SetRole(ctx, req.UserID, roomID, req.Role)
	})
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	h.Audit.RoomEvent(ctx, r, audit.EventRoleChanged, u.Subject, roomID, map[string]string{
		"user": req.UserID,
		"role": req.Role,
	})
	httpjson.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
