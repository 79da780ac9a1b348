package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/inkwellhq/inkwell/internal/app/features/ai"
	"github.com/inkwellhq/inkwell/internal/app/llm"
	chatstore "github.com/inkwellhq/inkwell/internal/app/store/aichats"
	docstore "github.com/inkwellhq/inkwell/internal/app/store/documents"
	membershipstore "github.com/inkwellhq/inkwell/internal/app/store/memberships"
	"github.com/inkwellhq/inkwell/internal/domain/models"
	"github.com/inkwellhq/inkwell/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type scriptedProvider struct {
	name    string
	model   string
	reply   string
	err     error
	lastReq llm.Request
}

func (p *scriptedProvider) Name() string         { return p.name }
func (p *scriptedProvider) DefaultModel() string { return p.model }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	p.lastReq = req
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func newTestHandler(t *testing.T, p llm.Provider) (*ai.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	reg := llm.NewRegistry()
	reg.Register(p)
	h := ai.NewHandler(
		docstore.New(db),
		membershipstore.New(db),
		chatstore.New(db),
		reg,
		p.Name(),
		zap.NewNop(),
	)
	return h, db
}

func TestChat_MemberGetsReplyAndHistoryPersists(t *testing.T) {
	p := &scriptedProvider{name: "fake", model: "fake-1", reply: "Here is a draft."}
	h, db := newTestHandler(t, p)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := f.CreateDocument(ctx, "user_owner", "Q3 Plan")

	req := testutil.AuthenticatedRequest("POST", "/x", strings.NewReader(`{"message":"Draft an intro"}`), testutil.OwnerUser())
	req = testutil.WithChiURLParam(req, "roomID", doc.RoomID)
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Reply    string `json:"reply"`
		Provider string `json:"provider"`
		Model    string `json:"model"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Reply != "Here is a draft." || resp.Provider != "fake" || resp.Model != "fake-1" {
		t.Errorf("unexpected response: %+v", resp)
	}

	// The document title rides along in the system prompt.
	if !strings.Contains(p.lastReq.System, "Q3 Plan") {
		t.Errorf("system prompt = %q", p.lastReq.System)
	}

	// Both turns were persisted.
	turns, err := chatstore.New(db).History(ctx, doc.RoomID, "user_owner", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("stored turns = %d, want 2", len(turns))
	}
	if turns[0].Role != chatstore.RoleUser || turns[1].Role != chatstore.RoleAssistant {
		t.Errorf("turn roles = %q, %q", turns[0].Role, turns[1].Role)
	}
}

func TestChat_ReplaysHistory(t *testing.T) {
	p := &scriptedProvider{name: "fake", model: "fake-1", reply: "ok"}
	h, db := newTestHandler(t, p)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := f.CreateDocument(ctx, "user_owner", "Notes")
	chats := chatstore.New(db)
	_ = chats.Append(ctx, chatstore.Message{RoomID: doc.RoomID, Subject: "user_owner", Role: chatstore.RoleUser, Content: "first question"})
	_ = chats.Append(ctx, chatstore.Message{RoomID: doc.RoomID, Subject: "user_owner", Role: chatstore.RoleAssistant, Content: "first answer"})

	req := testutil.AuthenticatedRequest("POST", "/x", strings.NewReader(`{"message":"follow-up"}`), testutil.OwnerUser())
	req = testutil.WithChiURLParam(req, "roomID", doc.RoomID)
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(p.lastReq.Messages) != 3 {
		t.Fatalf("messages sent = %d, want 3", len(p.lastReq.Messages))
	}
	if p.lastReq.Messages[0].Content != "first question" {
		t.Errorf("history not replayed in order: %+v", p.lastReq.Messages)
	}
	last := p.lastReq.Messages[2]
	if last.Role != llm.RoleUser || last.Content != "follow-up" {
		t.Errorf("final turn = %+v", last)
	}
}

func TestChat_TruncatesContextOnRuneBoundary(t *testing.T) {
	p := &scriptedProvider{name: "fake", model: "fake-1", reply: "ok"}
	h, db := newTestHandler(t, p)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// 18000 bytes of 3-byte runes; the context cap is not a multiple of 3,
	// so a byte-index cut would land mid-rune.
	doc := models.Document{
		RoomID:    uuid.NewString(),
		Title:     "Long",
		Content:   strings.Repeat("日", 6000),
		CreatedBy: "user_owner",
	}
	if err := docstore.New(db).Insert(ctx, doc); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	f.CreateMembership(ctx, "user_owner", doc.RoomID, models.RoleOwner)

	req := testutil.AuthenticatedRequest("POST", "/x", strings.NewReader(`{"message":"summarize"}`), testutil.OwnerUser())
	req = testutil.WithChiURLParam(req, "roomID", doc.RoomID)
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !utf8.ValidString(p.lastReq.System) {
		t.Error("system prompt contains invalid UTF-8 after truncation")
	}
	if len(p.lastReq.System) >= len(doc.Content) {
		t.Errorf("system prompt was not truncated: %d bytes", len(p.lastReq.System))
	}
}

func TestChat_NonMemberForbidden(t *testing.T) {
	p := &scriptedProvider{name: "fake", model: "fake-1", reply: "ok"}
	h, db := newTestHandler(t, p)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := f.CreateDocument(ctx, "user_owner", "Private")

	req := testutil.AuthenticatedRequest("POST", "/x", strings.NewReader(`{"message":"hi"}`), testutil.EditorUser())
	req = testutil.WithChiURLParam(req, "roomID", doc.RoomID)
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if p.lastReq.Messages != nil {
		t.Error("provider was called for a non-member")
	}
}

func TestChat_Validation(t *testing.T) {
	p := &scriptedProvider{name: "fake", model: "fake-1", reply: "ok"}
	h, db := newTestHandler(t, p)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := f.CreateDocument(ctx, "user_owner", "Notes")

	cases := []struct {
		name string
		body string
	}{
		{"empty message", `{"message":"  "}`},
		{"unknown provider", `{"message":"hi","provider":"nope"}`},
		{"too long", `{"message":"` + strings.Repeat("a", 4001) + `"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest("POST", "/x", strings.NewReader(tc.body), testutil.OwnerUser())
			req = testutil.WithChiURLParam(req, "roomID", doc.RoomID)
			rec := httptest.NewRecorder()
			h.Chat(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestChat_ProviderFailureIsServerError(t *testing.T) {
	p := &scriptedProvider{name: "fake", model: "fake-1", err: errors.New("upstream down")}
	h, db := newTestHandler(t, p)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := f.CreateDocument(ctx, "user_owner", "Notes")

	req := testutil.AuthenticatedRequest("POST", "/x", strings.NewReader(`{"message":"hi"}`), testutil.OwnerUser())
	req = testutil.WithChiURLParam(req, "roomID", doc.RoomID)
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	// Failed exchanges leave no partial history behind.
	turns, _ := chatstore.New(db).History(ctx, doc.RoomID, "user_owner", 10)
	if len(turns) != 0 {
		t.Errorf("stored turns = %d, want 0", len(turns))
	}
}

func TestHistory_OnlyOwnTurns(t *testing.T) {
	p := &scriptedProvider{name: "fake", model: "fake-1", reply: "ok"}
	h, db := newTestHandler(t, p)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := f.CreateDocument(ctx, "user_owner", "Notes")
	f.CreateMembership(ctx, "user_editor", doc.RoomID, models.RoleEditor)
	chats := chatstore.New(db)
	_ = chats.Append(ctx, chatstore.Message{RoomID: doc.RoomID, Subject: "user_owner", Role: chatstore.RoleUser, Content: "mine"})
	_ = chats.Append(ctx, chatstore.Message{RoomID: doc.RoomID, Subject: "user_editor", Role: chatstore.RoleUser, Content: "theirs"})

	req := testutil.AuthenticatedRequest("GET", "/x", nil, testutil.OwnerUser())
	req = testutil.WithChiURLParam(req, "roomID", doc.RoomID)
	rec := httptest.NewRecorder()
	h.History(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].Content != "mine" {
		t.Errorf("unexpected history: %+v", resp.Messages)
	}
}

func TestListProviders(t *testing.T) {
	p := &scriptedProvider{name: "fake", model: "fake-1"}
	h, _ := newTestHandler(t, p)

	req := testutil.AuthenticatedRequest("GET", "/x", nil, testutil.OwnerUser())
	rec := httptest.NewRecorder()
	h.ListProviders(rec, req)

	var resp struct {
		Providers []string `json:"providers"`
		Default   string   `json:"default"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Default != "fake" || len(resp.Providers) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}
