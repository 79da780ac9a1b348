// internal/app/features/documents/invite.go
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

type inviteRequest struct {
	Email string `json:"email"`
}

// Invite handles POST /api/documents/{roomID}/invite.
//
// The invitee joins as an editor. They must already have an account; the
// invite resolves their email to a stable identifier and the membership is
// keyed by that identifier, never by the email.
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
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

	var req inviteRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	if !inputval.IsValidEmail(req.Email) {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeValidation, "invalid email address"))
		return
	}
	email := inputval.NormalizeEmail(req.Email)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var invitee models.RoomMembership
	err := txn.WithTransaction(ctx, h.Client, func(ctx context.Context) error {
		if _, err := roompolicy.RequireOwner(ctx, h.Members, u.Subject, roomID); err != nil {
			return err
		}

		exists, err := h.Docs.Exists(ctx, roomID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.New(apperr.CodeNotFound, "document not found")
		}

		target, err := h.Users.GetByEmail(ctx, email)
		if err == mongo.ErrNoDocuments {
			return apperr.New(apperr.CodeNotFound, "no account with this email")
		}
		if err != nil {
			return err
		}

		if _, err := h.Members.Get(ctx, target.Subject, roomID); err == nil {
			return apperr.New(apperr.CodeAlreadyMember, "already a member of this room")
		} else if err != mongo.ErrNoDocuments {
			return err
		}

		invitee = models.RoomMembership{
			RoomID:    roomID,
			UserID:    target.Subject,
			UserEmail: target.Email,
			Role:      models.RoleEditor,
		}
		return h.Members.Upsert(ctx, invitee)
	})
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	h.Audit.RoomEvent(ctx, r, audit.EventUserInvited, u.Subject, roomID, map[string]string{"invitee": invitee.UserID})
	httpjson.Write(w, http.StatusOK, memberResponse(invitee))
}
