package datatoken_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkwellhq/inkwell/internal/app/features/datatoken"
	"github.com/inkwellhq/inkwell/internal/app/system/identity"
	"github.com/inkwellhq/inkwell/internal/testutil"
	"go.uber.org/zap"
)

const testTokenKey = "0123456789abcdef0123456789abcdef"

func TestMint_ReturnsVerifiableToken(t *testing.T) {
	minter, err := identity.NewMinter(testTokenKey, "inkwell")
	if err != nil {
		t.Fatalf("NewMinter failed: %v", err)
	}
	handler := datatoken.NewHandler(minter, zap.NewNop())

	req := testutil.AuthenticatedRequest("GET", "/api/datastore-token", nil, testutil.TestUser{
		Subject: "user_abc",
		Name:    "Ada",
		Email:   "ada@example.com",
	})
	rec := httptest.NewRecorder()
	handler.Mint(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	claims, err := minter.VerifyMinted(resp["token"])
	if err != nil {
		t.Fatalf("minted token does not verify: %v", err)
	}
	if claims.Subject != "user_abc" {
		t.Errorf("token subject = %q, want user_abc", claims.Subject)
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	minter, err := identity.NewMinter(testTokenKey, "inkwell")
	if err != nil {
		t.Fatalf("NewMinter failed: %v", err)
	}
	handler := datatoken.NewHandler(minter, zap.NewNop())

	tok, err := minter.Mint("user_abc", identity.Profile{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	req := testutil.JSONRequest("POST", "/api/datastore-token/verify", `{"token":"`+tok+`"}`)
	rec := httptest.NewRecorder()
	handler.Verify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["subject"] != "user_abc" || resp["email"] != "ada@example.com" {
		t.Errorf("response = %v", resp)
	}
}

func TestVerify_RejectsForeignToken(t *testing.T) {
	minter, _ := identity.NewMinter(testTokenKey, "inkwell")
	other, _ := identity.NewMinter("ffffffffffffffffffffffffffffffff", "inkwell")
	handler := datatoken.NewHandler(minter, zap.NewNop())

	tok, err := other.Mint("user_abc", identity.Profile{})
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	req := testutil.JSONRequest("POST", "/api/datastore-token/verify", `{"token":"`+tok+`"}`)
	rec := httptest.NewRecorder()
	handler.Verify(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestMint_Unauthenticated(t *testing.T) {
	minter, _ := identity.NewMinter(testTokenKey, "inkwell")
	handler := datatoken.NewHandler(minter, zap.NewNop())

	req := httptest.NewRequest("GET", "/api/datastore-token", nil)
	rec := httptest.NewRecorder()
	handler.Mint(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
