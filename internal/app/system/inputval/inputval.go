// internal/app/system/inputval/inputval.go
// Package inputval validates externally supplied identifiers before they
// reach the stores. Handlers reject bad input with a VALIDATION error instead
// of passing it to MongoDB.
package inputval

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

// IsValidEmail reports whether s is a plausible bare email address.
// Display-name forms ("Name <a@b.c>") are rejected; only the addr-spec
// itself is accepted.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// ParseAddress accepts "Name <user@host>"; we only take the bare form.
	if addr.Address != s {
		return false
	}
	local, _, ok := strings.Cut(s, "@")
	if !ok || local == "" {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}
	return true
}

// IsValidRoomID reports whether s is a well-formed room identifier.
// Rooms are keyed by the UUID assigned at document creation.
func IsValidRoomID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// NormalizeEmail lowercases and trims an email for comparison and storage.
// Memberships denormalize emails for display; lookups always go through this.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
