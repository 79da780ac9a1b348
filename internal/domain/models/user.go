// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account in the workspace.
//
// NOTE:
//   - Subject is the stable identifier assigned by the identity provider and is
//     the only value that may be used for authorization decisions. It never
//     changes for the lifetime of the account.
//   - Email, FullName, and AvatarURL are denormalized display data. Email may
//     change and must not be used as a key; legacy data keyed by email is
//     handled by the reconcile package.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Subject   string             `bson:"subject" json:"subject"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	FullName  string             `bson:"full_name,omitempty" json:"full_name,omitempty"`
	AvatarURL string             `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Status    string             `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
