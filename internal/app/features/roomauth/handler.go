// internal/app/features/roomauth/handler.go
// Package roomauth authorizes real-time room joins.
//
// The hosted real-time layer does not know who the app's users are; before a
// client may connect to a room it asks this endpoint for a capability token.
// Membership in the room's membership collection is the only thing that
// grants entry, and both roles grant the same full access to the channel.
package roomauth

import (
	"context"
	"net/http"
	"time"

	"github.com/inkwellhq/inkwell/internal/app/reconcile"
	grantstore "github.com/inkwellhq/inkwell/internal/app/store/grants"
	membershipstore "github.com/inkwellhq/inkwell/internal/app/store/memberships"
	"github.com/inkwellhq/inkwell/internal/app/system/apperr"
	"github.com/inkwellhq/inkwell/internal/app/system/auditlog"
	"github.com/inkwellhq/inkwell/internal/app/system/authz"
	"github.com/inkwellhq/inkwell/internal/app/system/httpjson"
	"github.com/inkwellhq/inkwell/internal/app/system/inputval"
	"github.com/inkwellhq/inkwell/internal/app/system/realtime"
	"github.com/inkwellhq/inkwell/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds dependencies for the room authorization endpoints.
type Handler struct {
	Members  *membershipstore.Store
	Issuer   *realtime.Issuer
	Grants   *grantstore.Store
	Migrator *reconcile.SessionMigrator
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs the room authorization handler.
func NewHandler(members *membershipstore.Store, issuer *realtime.Issuer, grants *grantstore.Store, migrator *reconcile.SessionMigrator, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Members:  members,
		Issuer:   issuer,
		Grants:   grants,
		Migrator: migrator,
		Audit:    audit,
		Log:      logger,
	}
}

type authRequest struct {
	Room string `json:"room"`
}

type authResponse struct {
	Token     string            `json:"token"`
	Room      string            `json:"room"`
	Actor     realtime.Presence `json:"actor"`
	ExpiresAt string            `json:"expires_at"`
	GrantID   string            `json:"grant_id"`
	GrantRef  string            `json:"grant_ref"`
}

// Authorize handles POST /api/rooms/auth.
//
// Non-members get exactly 403 { "message": "You are not in this room" } and
// nothing else; the client keys its "ask for access" UI off that shape.
// Infrastructure failures are 500, never 403, so a flaky database cannot
// silently lock members out.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	u, ok := authz.UserCtx(r)
	if !ok {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeUnauthorized, "sign in required"))
		return
	}

	var req authRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	if !inputval.IsValidRoomID(req.Room) {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeValidation, "invalid room id"))
		return
	}

	// Older accounts may still carry email-keyed memberships; fold them in
	// before the membership check so a migrated member's first join works.
	h.Migrator.MaybeRun(w, r, u.Subject, u.Email)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	member, err := h.Members.HasMembership(ctx, u.Subject, req.Room)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	if !member {
		h.Audit.RoomJoinDenied(ctx, r, u.Subject, req.Room)
		httpjson.Write(w, http.StatusForbidden, map[string]string{
			"message": "You are not in this room",
		})
		return
	}

	grant, err := h.Issuer.Grant(u.Subject, req.Room, realtime.PresenceFor(u.Name, u.Email, u.AvatarURL))
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	grantID, secret, err := h.Grants.Record(ctx, u.Subject, req.Room, grant.ExpiresAt)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	httpjson.Write(w, http.StatusOK, authResponse{
		Token:     grant.Token,
		Room:      grant.RoomID,
		Actor:     grant.Actor,
		ExpiresAt: grant.ExpiresAt.UTC().Format(time.RFC3339),
		GrantID:   grantID.Hex(),
		GrantRef:  secret,
	})
}

type confirmRequest struct {
	GrantID  string `json:"grant_id"`
	GrantRef string `json:"grant_ref"`
	Token    string `json:"token,omitempty"`
}

// Confirm handles POST /api/rooms/confirm. The real-time layer's webhook
// presents a grant id and reference to check that this service issued the
// capability. When the capability token rides along it must validate and
// carry the same subject and room as the grant. Unknown, expired, and
// mismatched grants are all 403.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(req.GrantID)
	if err != nil {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeValidation, "invalid grant id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	grant, err := h.Grants.Confirm(ctx, id, req.GrantRef)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	if grant == nil {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeForbidden, "unknown grant"))
		return
	}

	if req.Token != "" {
		claims, err := h.Issuer.Validate(req.Token)
		if err != nil || claims.Subject != grant.Subject || claims.RoomID != grant.RoomID {
			httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeForbidden, "token does not match grant"))
			return
		}
	}

	httpjson.Write(w, http.StatusOK, map[string]any{
		"ok":      true,
		"room":    grant.RoomID,
		"subject": grant.Subject,
	})
}

type grantView struct {
	ID        string `json:"id"`
	Room      string `json:"room"`
	IssuedAt  string `json:"issued_at"`
	ExpiresAt string `json:"expires_at"`
}

// ListGrants handles GET /api/rooms/grants. It lists the caller's live
// capabilities, newest first, so a user can see which rooms their devices
// are currently authorized to join.
func (h *Handler) ListGrants(w http.ResponseWriter, r *http.Request) {
	u, ok := authz.UserCtx(r)
	if !ok {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeUnauthorized, "sign in required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	grants, err := h.Grants.ForSubject(ctx, u.Subject)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	views := make([]grantView, 0, len(grants))
	for _, g := range grants {
		views = append(views, grantView{
			ID:        g.ID.Hex(),
			Room:      g.RoomID,
			IssuedAt:  g.IssuedAt.UTC().Format(time.RFC3339),
			ExpiresAt: g.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"grants": views})
}
