// internal/app/policy/roompolicy/roompolicy.go
// Package roompolicy provides authorization policies for room operations.
//
// Authorization rules:
//   - Any member (owner or editor) can join the room, read the document, and
//     use the document assistant
//   - Only owners can invite, remove members, change roles, publish, and
//     delete the room
//   - A room must never lose its last owner through remove or role change
//
// Every mutation re-checks the actor's role inside the same transaction as
// the write, so a concurrent demotion cannot slip a stale check through.
package roompolicy

import (
	"context"

	membershipstore "github.com/inkwellhq/inkwell/internal/app/store/memberships"
	"github.com/inkwellhq/inkwell/internal/app/system/apperr"
	"github.com/inkwellhq/inkwell/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// RequireMember returns the actor's membership or a FORBIDDEN error.
// Database failures pass through unclassified.
func RequireMember(ctx context.Context, store *membershipstore.Store, subject, roomID string) (*models.RoomMembership, error) {
	m, err := store.Get(ctx, subject, roomID)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.CodeForbidden, "You are not in this room")
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RequireOwner returns the actor's membership only if they are an owner.
// Non-members and editors both get FORBIDDEN; the message does not reveal
// which one applied.
func RequireOwner(ctx context.Context, store *membershipstore.Store, subject, roomID string) (*models.RoomMembership, error) {
	m, err := RequireMember(ctx, store, subject, roomID)
	if err != nil {
		return nil, err
	}
	if m.Role != models.RoleOwner {
		return nil, apperr.New(apperr.CodeForbidden, "only an owner can do this")
	}
	return m, nil
}

// CheckNotLastOwner rejects removing or demoting (subject, roomID) when that
// membership is the room's only owner.
func CheckNotLastOwner(ctx context.Context, store *membershipstore.Store, subject, roomID string) error {
	m, err := store.Get(ctx, subject, roomID)
	if err == mongo.ErrNoDocuments {
		return nil
	}
	if err != nil {
		return err
	}
	if m.Role != models.RoleOwner {
		return nil
	}
	owners, err := store.CountOwners(ctx, roomID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return apperr.New(apperr.CodeLastOwner, "a room must keep at least one owner")
	}
	return nil
}
