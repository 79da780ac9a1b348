// internal/domain/models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
)

// IsValidRole reports whether role is one of the known membership roles.
func IsValidRole(role string) bool {
	return role == RoleOwner || role == RoleEditor
}

// RoomMembership is the authoritative join between users and rooms.
// Exactly one document per (user_id, room_id); role is a scalar.
//
// UserID is the user's stable subject identifier. UserEmail is denormalized
// for display and invite flows only; it is never an authorization key.
//
// Desired invariant (not always held, because of migration history): every
// room has at least one membership with role "owner". The reconcile package
// repairs rooms where the invariant is broken.
type RoomMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID    string             `bson:"room_id" json:"room_id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	UserEmail string             `bson:"user_email,omitempty" json:"user_email,omitempty"`
	Role      string             `bson:"role" json:"role"` // "owner" | "editor"
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// LegacyMembership is a membership record keyed by email instead of the
// stable subject identifier. Only earlier versions of the system produced
// these; they are migrated to RoomMembership records and deleted.
type LegacyMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	RoomID    string             `bson:"room_id"`
	UserEmail string             `bson:"user_email"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"created_at"`
}
