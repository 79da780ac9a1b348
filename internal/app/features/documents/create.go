// internal/app/features/documents/create.go
package documents

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/inkwellhq/inkwell/internal/app/store/audit"
	"github.com/inkwellhq/inkwell/internal/app/system/authz"
	"github.com/inkwellhq/inkwell/internal/app/system/htmlsanitize"
	"github.com/inkwellhq/inkwell/internal/app/system/httpjson"
	"github.com/inkwellhq/inkwell/internal/app/system/timeouts"
	"github.com/inkwellhq/inkwell/internal/app/system/txn"
	"github.com/inkwellhq/inkwell/internal/domain/models"
)

type createRequest struct {
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
	Cover string `json:"cover,omitempty"`
}

// Create handles POST /api/documents.
//
// The document and the creator's owner membership are written in one
// transaction. A document without an owner must be impossible to create;
// the self-heal exists for historic rooms, not for new ones.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := authz.UserCtx(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	title := htmlsanitize.PlainText(req.Title)
	if title == "" {
		title = "Untitled"
	}

	doc := models.Document{
		RoomID:    uuid.NewString(),
		Title:     title,
		Icon:      req.Icon,
		Cover:     req.Cover,
		CreatedBy: u.Subject,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err := txn.WithTransaction(ctx, h.Client, func(ctx context.Context) error {
		if err := h.Docs.Insert(ctx, doc); err != nil {
			return err
		}
		return h.Members.Upsert(ctx, models.RoomMembership{
			RoomID:    doc.RoomID,
			UserID:    u.Subject,
			UserEmail: u.Email,
			Role:      models.RoleOwner,
		})
	})
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	h.Audit.RoomEvent(ctx, r, audit.EventRoomCreated, u.Subject, doc.RoomID, map[string]string{"title": title})
	httpjson.Write(w, http.StatusCreated, docResponse(doc, models.RoleOwner))
}
