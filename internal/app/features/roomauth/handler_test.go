package roomauth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/inkwellhq/inkwell/internal/app/features/roomauth"
	"github.com/inkwellhq/inkwell/internal/app/reconcile"
	grantstore "github.com/inkwellhq/inkwell/internal/app/store/grants"
	membershipstore "github.com/inkwellhq/inkwell/internal/app/store/memberships"
	"github.com/inkwellhq/inkwell/internal/app/system/auth"
	"github.com/inkwellhq/inkwell/internal/app/system/realtime"
	"github.com/inkwellhq/inkwell/internal/domain/models"
	"github.com/inkwellhq/inkwell/internal/testutil"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	testSessionKey = "0123456789abcdef0123456789abcdef"
	testTokenKey   = "ffffffffffffffffffffffffffffffff"
)

func newTestHandler(t *testing.T) (*roomauth.Handler, *realtime.Issuer, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessions, err := auth.NewSessionManager(testSessionKey, "inkwell_session", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	issuer, err := realtime.NewIssuer(testTokenKey, "inkwell")
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	members := membershipstore.New(db)
	migrator := reconcile.NewSessionMigrator(sessions, reconcile.NewMigrator(members, logger), nil, logger)
	h := roomauth.NewHandler(members, issuer, grantstore.New(db), migrator, nil, logger)
	return h, issuer, db
}

func authBody(roomID string) string {
	return `{"room":"` + roomID + `"}`
}

func TestAuthorize_Member(t *testing.T) {
	h, issuer, db := newTestHandler(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	roomID := uuid.NewString()
	f.CreateMembership(ctx, "user_editor", roomID, models.RoleEditor)

	req := testutil.AuthenticatedRequest("POST", "/api/rooms/auth", strings.NewReader(authBody(roomID)), testutil.EditorUser())
	rec := httptest.NewRecorder()
	h.Authorize(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token    string `json:"token"`
		Room     string `json:"room"`
		GrantID  string `json:"grant_id"`
		GrantRef string `json:"grant_ref"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Room != roomID || resp.GrantID == "" || resp.GrantRef == "" {
		t.Errorf("unexpected response: %+v", resp)
	}

	claims, err := issuer.Validate(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Subject != "user_editor" || claims.RoomID != roomID {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestAuthorize_OwnerAndEditorBothJoin(t *testing.T) {
	h, _, db := newTestHandler(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	roomID := uuid.NewString()
	f.CreateMembership(ctx, "user_owner", roomID, models.RoleOwner)
	f.CreateMembership(ctx, "user_editor", roomID, models.RoleEditor)

	for _, u := range []testutil.TestUser{testutil.OwnerUser(), testutil.EditorUser()} {
		req := testutil.AuthenticatedRequest("POST", "/api/rooms/auth", strings.NewReader(authBody(roomID)), u)
		rec := httptest.NewRecorder()
		h.Authorize(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", u.Subject, rec.Code)
		}
	}
}

func TestAuthorize_NonMember(t *testing.T) {
	h, _, db := newTestHandler(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	roomID := uuid.NewString()
	f.CreateMembership(ctx, "user_owner", roomID, models.RoleOwner)

	req := testutil.AuthenticatedRequest("POST", "/api/rooms/auth", strings.NewReader(authBody(roomID)), testutil.TestUser{Subject: "user_stranger"})
	rec := httptest.NewRecorder()
	h.Authorize(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["message"] != "You are not in this room" {
		t.Errorf("message = %q", resp["message"])
	}
	if len(resp) != 1 {
		t.Errorf("response must carry only the message field: %v", resp)
	}
}

func TestAuthorize_PresenceDefaults(t *testing.T) {
	h, issuer, db := newTestHandler(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	roomID := uuid.NewString()
	f.CreateMembership(ctx, "user_blank", roomID, models.RoleEditor)

	req := testutil.AuthenticatedRequest("POST", "/api/rooms/auth", strings.NewReader(authBody(roomID)), testutil.TestUser{Subject: "user_blank"})
	rec := httptest.NewRecorder()
	h.Authorize(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	claims, err := issuer.Validate(resp.Token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Presence.Name != realtime.DefaultName || claims.Presence.Email != realtime.DefaultEmail {
		t.Errorf("presence = %+v, want sentinels", claims.Presence)
	}
	if claims.Presence.AvatarURL != "" {
		t.Errorf("avatar = %q, want empty", claims.Presence.AvatarURL)
	}
}

func TestAuthorize_MigratesLegacyBeforeCheck(t *testing.T) {
	h, _, db := newTestHandler(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	roomID := uuid.NewString()
	f.CreateLegacyMembership(ctx, "editor@test.com", roomID, models.RoleEditor)

	req := testutil.AuthenticatedRequest("POST", "/api/rooms/auth", strings.NewReader(authBody(roomID)), testutil.EditorUser())
	rec := httptest.NewRecorder()
	h.Authorize(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s; legacy membership should admit after migration", rec.Code, rec.Body.String())
	}
}

func TestAuthorize_BadInput(t *testing.T) {
	h, _, _ := newTestHandler(t)

	// Unauthenticated.
	req := testutil.JSONRequest("POST", "/api/rooms/auth", authBody(uuid.NewString()))
	rec := httptest.NewRecorder()
	h.Authorize(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated: status = %d, want 401", rec.Code)
	}

	// Room id that is not a UUID.
	req = testutil.AuthenticatedRequest("POST", "/api/rooms/auth", strings.NewReader(`{"room":"../etc"}`), testutil.EditorUser())
	rec = httptest.NewRecorder()
	h.Authorize(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad room id: status = %d, want 400", rec.Code)
	}
}

func TestConfirm(t *testing.T) {
	h, issuer, db := newTestHandler(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	roomID := uuid.NewString()
	f.CreateMembership(ctx, "user_editor", roomID, models.RoleEditor)

	req := testutil.AuthenticatedRequest("POST", "/api/rooms/auth", strings.NewReader(authBody(roomID)), testutil.EditorUser())
	rec := httptest.NewRecorder()
	h.Authorize(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authorize status = %d", rec.Code)
	}

	var resp struct {
		Token    string `json:"token"`
		GrantID  string `json:"grant_id"`
		GrantRef string `json:"grant_ref"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	body := `{"grant_id":"` + resp.GrantID + `","grant_ref":"` + resp.GrantRef + `"}`
	req = testutil.JSONRequest("POST", "/api/rooms/confirm", body)
	rec = httptest.NewRecorder()
	h.Confirm(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("confirm status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var confirmResp struct {
		OK      bool   `json:"ok"`
		Room    string `json:"room"`
		Subject string `json:"subject"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &confirmResp)
	if !confirmResp.OK || confirmResp.Room != roomID || confirmResp.Subject != "user_editor" {
		t.Errorf("confirm response = %+v", confirmResp)
	}

	// The issued capability token confirms against its own grant.
	body = `{"grant_id":"` + resp.GrantID + `","grant_ref":"` + resp.GrantRef + `","token":"` + resp.Token + `"}`
	req = testutil.JSONRequest("POST", "/api/rooms/confirm", body)
	rec = httptest.NewRecorder()
	h.Confirm(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("confirm with token: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// A token for a different room must not confirm this grant.
	other, err := issuer.Grant("user_editor", uuid.NewString(), realtime.PresenceFor("E", "e@test.com", ""))
	if err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	body = `{"grant_id":"` + resp.GrantID + `","grant_ref":"` + resp.GrantRef + `","token":"` + other.Token + `"}`
	req = testutil.JSONRequest("POST", "/api/rooms/confirm", body)
	rec = httptest.NewRecorder()
	h.Confirm(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("confirm with mismatched token: status = %d, want 403", rec.Code)
	}

	// Wrong reference is rejected.
	body = `{"grant_id":"` + resp.GrantID + `","grant_ref":"wrong"}`
	req = testutil.JSONRequest("POST", "/api/rooms/confirm", body)
	rec = httptest.NewRecorder()
	h.Confirm(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("confirm with bad ref: status = %d, want 403", rec.Code)
	}
}

func TestListGrants(t *testing.T) {
	h, _, db := newTestHandler(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	roomA := uuid.NewString()
	roomB := uuid.NewString()
	f.CreateMembership(ctx, "user_editor", roomA, models.RoleEditor)
	f.CreateMembership(ctx, "user_editor", roomB, models.RoleEditor)
	f.CreateMembership(ctx, "user_owner", roomA, models.RoleOwner)

	for _, room := range []string{roomA, roomB} {
		req := testutil.AuthenticatedRequest("POST", "/api/rooms/auth", strings.NewReader(authBody(room)), testutil.EditorUser())
		rec := httptest.NewRecorder()
		h.Authorize(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("authorize %s: status = %d", room, rec.Code)
		}
	}

	req := testutil.AuthenticatedRequest("GET", "/api/rooms/grants", nil, testutil.EditorUser())
	rec := httptest.NewRecorder()
	h.ListGrants(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Grants []struct {
			Room string `json:"room"`
		} `json:"grants"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Grants) != 2 {
		t.Fatalf("grants = %d, want 2", len(resp.Grants))
	}

	// Unauthenticated requests are rejected.
	rec = httptest.NewRecorder()
	h.ListGrants(rec, httptest.NewRequest("GET", "/api/rooms/grants", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated: status = %d, want 401", rec.Code)
	}
}
