// internal/app/features/datatoken/handler.go
// Package datatoken mints short-lived data-store credentials for signed-in
// users. The client SDK talks to the document store directly and presents
// this token; its subject is the verified stable identifier, so the store's
// rules see the same identity the app does.
package datatoken

import (
	"net/http"

	"github.com/inkwellhq/inkwell/internal/app/system/apperr"
	"github.com/inkwellhq/inkwell/internal/app/system/authz"
	"github.com/inkwellhq/inkwell/internal/app/system/httpjson"
	"github.com/inkwellhq/inkwell/internal/app/system/identity"
	"go.uber.org/zap"
)

// Handler holds dependencies for the data-store token endpoint.
type Handler struct {
	Minter *identity.Minter
	Log    *zap.Logger
}

// NewHandler constructs the data-store token handler.
func NewHandler(minter *identity.Minter, logger *zap.Logger) *Handler {
	return &Handler{Minter: minter, Log: logger}
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Mint handles GET /api/datastore-token. Requires a signed-in session.
// The response is never cacheable; a cached credential outliving its
// session would defeat sign-out.
func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	u, ok := authz.UserCtx(r)
	if !ok {
		// RequireSignedIn already guards the route; this is the fallback.
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	tok, err := h.Minter.Mint(u.Subject, identity.Profile{
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	})
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httpjson.Write(w, http.StatusOK, tokenResponse{Token: tok})
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	Subject string `json:"subject"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Verify handles POST /api/datastore-token/verify. The data layer presents a
// token it received from a client; a 403 means the credential was not minted
// here or has expired. No session is required, the token is the credential.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	claims, err := h.Minter.VerifyMinted(req.Token)
	if err != nil {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeForbidden, "invalid token"))
		return
	}

	httpjson.Write(w, http.StatusOK, verifyResponse{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	})
}
