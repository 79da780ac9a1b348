// internal/app/features/documents/publish.go
package documents

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inkwellhq/inkwell/internal/app/policy/roompolicy"
	"github.com/inkwellhq/inkwell/internal/app/store/audit"
	"github.com/inkwellhq/inkwell/internal/app/system/apperr"
	"github.com/inkwellhq/inkwell/internal/app/system/authz"
	"github.com/inkwellhq/inkwell/internal/app/system/htmlsanitize"
	"github.com/inkwellhq/inkwell/internal/app/system/httpjson"
	"github.com/inkwellhq/inkwell/internal/app/system/inputval"
	"github.com/inkwellhq/inkwell/internal/app/system/timeouts"
	"github.com/inkwellhq/inkwell/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
)

type publishRequest struct {
	Published bool `json:"published"`
}

// Publish handles POST /api/documents/{roomID}/publish. Owners flip the
// public visibility flag in either direction.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
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

	var req publishRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err := txn.WithTransaction(ctx, h.Client, func(ctx context.Context) error {
		if _, err := roompolicy.RequireOwner(ctx, h.Members, u.Subject, roomID); err != nil {
			return err
		}
		if err := h.Docs.SetPublished(ctx, roomID, req.Published); err != nil {
			if err == mongo.ErrNoDocuments {
				return apperr.New(apperr.CodeNotFound, "document not found")
			}
			return err
		}
		return nil
	})
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	event := audit.EventRoomPublished
	if !req.Published {
		event = audit.EventRoomUnpublished
	}
	h.Audit.RoomEvent(ctx, r, event, u.Subject, roomID, nil)
	httpjson.Write(w, http.StatusOK, map[string]bool{"ok": true, "published": req.Published})
}

type metaRequest struct {
	Title string `json:"title"`
	Icon  string `json:"icon"`
	Cover string `json:"cover"`
}

// UpdateMeta handles PATCH /api/documents/{roomID}. Any member can retitle
// the document or change its icon and cover; those edits are part of normal
// collaboration, not administration.
func (h *Handler) UpdateMeta(w http.ResponseWriter, r *http.Request) {
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

	var req metaRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	title := htmlsanitize.PlainText(req.Title)
	if title == "" {
		title = "Untitled"
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err := txn.WithTransaction(ctx, h.Client, func(ctx context.Context) error {
		if _, err := roompolicy.RequireMember(ctx, h.Members, u.Subject, roomID); err != nil {
			return err
		}
		if err := h.Docs.UpdateMeta(ctx, roomID, title, req.Icon, req.Cover); err != nil {
			if err == mongo.ErrNoDocuments {
				return apperr.New(apperr.CodeNotFound, "document not found")
			}
			return err
		}
		return nil
	})
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
