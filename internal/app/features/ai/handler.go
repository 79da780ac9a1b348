// internal/app/features/ai/handler.go
// Package ai exposes the per-document assistant. Conversations are scoped to
// (room, user): members chat with a provider about the document they are in,
// and the exchange is persisted so the thread survives reconnects.
package ai

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/inkwellhq/inkwell/internal/app/llm"
	"github.com/inkwellhq/inkwell/internal/app/policy/roompolicy"
	chatstore "github.com/inkwellhq/inkwell/internal/app/store/aichats"
	docstore "github.com/inkwellhq/inkwell/internal/app/store/documents"
	membershipstore "github.com/inkwellhq/inkwell/internal/app/store/memberships"
	"github.com/inkwellhq/inkwell/internal/app/system/apperr"
	"github.com/inkwellhq/inkwell/internal/app/system/authz"
	"github.com/inkwellhq/inkwell/internal/app/system/htmlsanitize"
	"github.com/inkwellhq/inkwell/internal/app/system/httpjson"
	"github.com/inkwellhq/inkwell/internal/app/system/inputval"
	"github.com/inkwellhq/inkwell/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxPromptLen caps a single user turn. Longer prompts are rejected rather
// than truncated so the user knows what was actually sent.
const maxPromptLen = 4000

// historyTurns is how many stored turns are replayed to the provider.
const historyTurns = 20

// maxContextLen caps how much of the document body rides along in the system
// prompt. Oversized documents are truncated, not rejected.
const maxContextLen = 16000

// Handler holds dependencies for the document assistant endpoints.
type Handler struct {
	Docs            *docstore.Store
	Members         *membershipstore.Store
	Chats           *chatstore.Store
	Providers       *llm.Registry
	DefaultProvider string
	Log             *zap.Logger
}

// NewHandler constructs the assistant handler.
func NewHandler(docs *docstore.Store, members *membershipstore.Store, chats *chatstore.Store, providers *llm.Registry, defaultProvider string, logger *zap.Logger) *Handler {
	return &Handler{
		Docs:            docs,
		Members:         members,
		Chats:           chats,
		Providers:       providers,
		DefaultProvider: defaultProvider,
		Log:             logger,
	}
}

type chatRequest struct {
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

type chatResponse struct {
	Reply    string `json:"reply"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Chat handles POST /api/ai/{roomID}/chat. The requester must be a member of
// the room; the assistant sees the document title plus the requester's recent
// turns in that room.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
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

	var req chatRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeValidation, "message is required"))
		return
	}
	if len(req.Message) > maxPromptLen {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeValidation, "message is too long"))
		return
	}

	name := req.Provider
	if name == "" {
		name = h.DefaultProvider
	}
	provider, err := h.Providers.Get(name)
	if err != nil {
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeValidation, "unknown provider"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	if _, err := roompolicy.RequireMember(ctx, h.Members, u.Subject, roomID); err != nil {
		cancel()
		httpjson.WriteError(w, h.Log, err)
		return
	}
	doc, err := h.Docs.Get(ctx, roomID)
	if err == mongo.ErrNoDocuments {
		cancel()
		httpjson.WriteError(w, h.Log, apperr.New(apperr.CodeNotFound, "document not found"))
		return
	}
	if err != nil {
		cancel()
		httpjson.WriteError(w, h.Log, err)
		return
	}

	history, err := h.Chats.History(ctx, roomID, u.Subject, historyTurns)
	cancel()
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: req.Message})

	model := req.Model
	if model == "" {
		model = provider.DefaultModel()
	}

	system := `You are a writing assistant embedded in a collaborative document titled "` + doc.Title + `". Help the user draft, edit, and reason about the document. Be concise.`
	if body := htmlsanitize.PlainText(doc.Content); body != "" {
		if len(body) > maxContextLen {
			// Back off to a rune boundary so the cut never ships a split
			// multi-byte character.
			cut := maxContextLen
			for cut > 0 && !utf8.RuneStart(body[cut]) {
				cut--
			}
			body = body[:cut]
		}
		system += "\n\nCurrent document content:\n" + body
	}

	llmCtx, llmCancel := context.WithTimeout(r.Context(), timeouts.Batch())
	reply, err := provider.Complete(llmCtx, llm.Request{
		Model:    model,
		System:   system,
		Messages: messages,
	})
	llmCancel()
	if err != nil {
		h.Log.Warn("assistant completion failed",
			zap.String("provider", name),
			zap.String("room_id", roomID),
			zap.Error(err))
		httpjson.WriteError(w, h.Log, err)
		return
	}

	// Persist both turns. A failure here loses history, not the reply.
	saveCtx, saveCancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer saveCancel()
	now := time.Now().UTC()
	if err := h.Chats.Append(saveCtx, chatstore.Message{
		RoomID: roomID, Subject: u.Subject, Role: chatstore.RoleUser,
		Content: req.Message, CreatedAt: now,
	}); err != nil {
		h.Log.Warn("failed to store user turn", zap.Error(err))
	}
	if err := h.Chats.Append(saveCtx, chatstore.Message{
		RoomID: roomID, Subject: u.Subject, Role: chatstore.RoleAssistant,
		Content: reply, Model: model, CreatedAt: now.Add(time.Millisecond),
	}); err != nil {
		h.Log.Warn("failed to store assistant turn", zap.Error(err))
	}

	httpjson.Write(w, http.StatusOK, chatResponse{Reply: reply, Provider: name, Model: model})
}

type historyTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// History handles GET /api/ai/{roomID}/history. Returns the requester's own
// conversation for the room in chronological order.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := roompolicy.RequireMember(ctx, h.Members, u.Subject, roomID); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	turns, err := h.Chats.History(ctx, roomID, u.Subject, 50)
	if err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	views := make([]historyTurn, 0, len(turns))
	for _, m := range turns {
		views = append(views, historyTurn{
			Role:      m.Role,
			Content:   m.Content,
			Model:     m.Model,
			CreatedAt: m.CreatedAt,
		})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"messages": views})
}

// Providers handles GET /api/ai/providers, listing the providers that were
// configured at startup so the client can offer a picker.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, map[string]any{
		"providers": h.Providers.Names(),
		"default":   h.DefaultProvider,
	})
}
