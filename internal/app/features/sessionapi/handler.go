// internal/app/features/sessionapi/handler.go
// Package sessionapi exchanges identity-provider tokens for app sessions.
//
// The client authenticates against the hosted identity provider and trades
// the resulting ID token here for an HttpOnly session cookie. From then on
// the cookie is the only credential the app trusts; the provider token is
// never stored.
package sessionapi

import (
	"context"
	"net/http"

	"github.com/inkwellhq/inkwell/internal/app/reconcile"
	userstore "github.com/inkwellhq/inkwell/internal/app/store/users"
	"github.com/inkwellhq/inkwell/internal/app/system/apperr"
	"github.com/inkwellhq/inkwell/internal/app/system/auditlog"
	"github.com/inkwellhq/inkwell/internal/app/system/auth"
	"github.com/inkwellhq/inkwell/internal/app/system/authz"
	"github.com/inkwellhq/inkwell/internal/app/system/httpjson"
	"github.com/inkwellhq/inkwell/internal/app/system/identity"
	"github.com/inkwellhq/inkwell/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// TokenVerifier validates identity-provider ID tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (*identity.Claims, error)
}

// Handler holds dependencies for the session exchange endpoints.
type Handler struct {
	Sessions *auth.SessionManager
	Verifier TokenVerifier
	Users    *userstore.Store
	Migrator *reconcile.SessionMigrator
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs the session exchange handler.
func NewHandler(sessions *auth.SessionManager, verifier TokenVerifier, users *userstore.Store, migrator *reconcile.SessionMigrator, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Sessions: sessions,
		Verifier: verifier,
		Users:    users,
		Migrator: migrator,
		Audit:    audit,
		Log:      logger,
	}
}

type exchangeRequest struct {
	IDToken string `json:"idToken"`
}

type exchangeResponse struct {
	OK  bool   `json:"ok"`
	UID string `json:"uid"`
}

// Exchange handles POST /api/session.
//
// The request body carries the identity provider's ID token. On success the
// response sets the session cookie and returns { "ok": true, "uid": "…" }.
// A malformed body is 400; a token that fails verification is 401.
func (h *Handler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	if req.IDToken == "" {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeValidation, "idToken is required"))
		return
	}

	claims, err := h.Verifier.Verify(r.Context(), req.IDToken)
	if err != nil {
		h.Audit.SessionExchangeFailed(r.Context(), r, "token verification failed")
		httpjson.WriteError(w, h.Log, apperr.Wrap(apperr.CodeUnauthorized, "invalid identity token", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.UpsertBySubject(ctx, claims.StableID(), claims.Email, claims.Name, claims.Picture)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	err = h.Sessions.Establish(w, r, &auth.SessionUser{
		ID:        u.Subject,
		Name:      u.FullName,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	})
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	// Fold any email-keyed legacy memberships into the stable id. Best
	// effort; the session is established either way.
	h.Migrator.MaybeRun(w, r, u.Subject, u.Email)

	h.Audit.SessionExchangeSuccess(r.Context(), r, u.Subject)
	httpjson.Write(w, http.StatusOK, exchangeResponse{OK: true, UID: u.Subject})
}

type logoutResponse struct {
	OK bool `json:"ok"`
}

// Logout handles DELETE /api/session. Clearing an absent session succeeds;
// sign-out is idempotent.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	subject := ""
	if u, ok := authz.UserCtx(r); ok {
		subject = u.Subject
	}

	if err := h.Sessions.Clear(w, r); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	if subject != "" {
		h.Audit.Logout(r.Context(), r, subject)
	}
	httpjson.Write(w, http.StatusOK, logoutResponse{OK: true})
}
