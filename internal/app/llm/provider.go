// internal/app/llm/provider.go
// Package llm routes document assistant requests to AI completion providers.
package llm

import (
	"context"
	"errors"
	"sync"
)

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a completion request in provider-neutral form.
type Request struct {
	Model     string    `json:"model,omitempty"` // empty means the provider default
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// Provider is an AI completion backend.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai", "anthropic")
	Name() string

	// DefaultModel returns the model used when the request names none
	DefaultModel() string

	// Complete returns the assistant's reply for the request
	Complete(ctx context.Context, req Request) (string, error)
}

// Common errors
var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrEmptyReply       = errors.New("provider returned an empty reply")
)

// Registry holds the configured providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry. Providers are registered
// at startup based on which API keys are configured.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return p, nil
}

// Names returns the names of all registered providers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
