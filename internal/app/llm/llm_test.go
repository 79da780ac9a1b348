package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeProvider struct{ name string }

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) DefaultModel() string { return "fake-1" }
func (f *fakeProvider) Complete(ctx context.Context, req Request) (string, error) {
	return "ok", nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeProvider{name: "fake"})

	p, err := r.Get("fake")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Name() != "fake" {
		t.Errorf("Name = %q", p.Name())
	}

	if _, err := r.Get("missing"); !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}

	if names := r.Names(); len(names) != 1 || names[0] != "fake" {
		t.Errorf("Names = %v", names)
	}
}

func TestAnthropicComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing version header")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Model == "" || req.MaxTokens <= 0 {
			t.Errorf("incomplete request: %+v", req)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "The document is a roadmap."},
			},
		})
	}))
	defer srv.Close()

	p := NewAnthropic("test-key", "", srv.URL)
	reply, err := p.Complete(context.Background(), Request{
		System:   "You are a document assistant.",
		Messages: []Message{{Role: RoleUser, Content: "Summarize."}},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "The document is a roadmap." {
		t.Errorf("reply = %q", reply)
	}
}

func TestAnthropicComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "authentication_error", "message": "invalid x-api-key"},
		})
	}))
	defer srv.Close()

	p := NewAnthropic("bad-key", "", srv.URL)
	_, err := p.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestAnthropicComplete_EmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"content": []map[string]string{}})
	}))
	defer srv.Close()

	p := NewAnthropic("test-key", "", srv.URL)
	_, err := p.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}
