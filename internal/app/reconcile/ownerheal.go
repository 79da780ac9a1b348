// internal/app/reconcile/ownerheal.go
package reconcile

import (
	"context"

	docstore "github.com/inkwellhq/inkwell/internal/app/store/documents"
	membershipstore "github.com/inkwellhq/inkwell/internal/app/store/memberships"
	"github.com/inkwellhq/inkwell/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureRoomHasOwner restores an owner to a room that has none, by promoting
// the requester's existing membership in place. It runs on document reads,
// so the common case (room already has an owner) must cost one read and zero
// writes.
//
// The heal never fabricates a membership: a requester without one is left
// alone even if the room is ownerless. Two concurrent heals can both
// promote; ending up with two owners is harmless and the rest of the system
// treats co-owners as normal.
//
// Returns true when a promotion happened.
func EnsureRoomHasOwner(ctx context.Context, docs *docstore.Store, members *membershipstore.Store, logger *zap.Logger, subject, roomID string) (bool, error) {
	exists, err := docs.Exists(ctx, roomID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	hasOwner, err := members.OwnerExists(ctx, roomID)
	if err != nil {
		return false, err
	}
	if hasOwner {
		return false, nil
	}

	m, err := members.Get(ctx, subject, roomID)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if m.Role == models.RoleOwner {
		return false, nil
	}

	if err := members.SetRole(ctx, subject, roomID, models.RoleOwner); err != nil {
		if err == mongo.ErrNoDocuments {
			// Membership vanished between the read and the write.
			return false, nil
		}
		return false, err
	}

	logger.Warn("healed ownerless room",
		zap.String("room_id", roomID),
		zap.String("promoted_subject", subject))
	return true, nil
}
