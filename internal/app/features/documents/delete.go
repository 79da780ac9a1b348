// internal/app/features/documents/delete.go
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
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Delete handles DELETE /api/documents/{roomID}.
//
// The document and all of its memberships disappear in one transaction, so
// no membership row can outlive its room. The role check runs inside the
// transaction.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err := txn.WithTransaction(ctx, h.Client, func(ctx context.Context) error {
		if _, err := roompolicy.RequireOwner(ctx, h.Members, u.Subject, roomID); err != nil {
			return err
		}
		if err := h.Docs.Delete(ctx, roomID); err != nil {
			if err == mongo.ErrNoDocuments {
				return apperr.New(apperr.CodeNotFound, "document not found")
			}
			return err
		}
		_, err := h.Members.DeleteByRoom(ctx, roomID)
		return err
	})
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	// Assistant transcripts are cleanup, not correctness; drop them outside
	// the transaction.
	if _, err := h.Chats.DeleteByRoom(ctx, roomID); err != nil {
		h.Log.Warn("failed to delete assistant transcripts for room",
			zap.String("room_id", roomID), zap.Error(err))
	}

	h.Audit.RoomEvent(ctx, r, audit.EventRoomDeleted, u.Subject, roomID, nil)
	httpjson.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
