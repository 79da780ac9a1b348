// internal/domain/models/document.go
package models

import "time"

// Document is the content entity behind a collaboration room. The room is
// identified by the document's RoomID; there is exactly one room per document.
//
// Content holds the serialized editor payload. The server treats it as opaque
// apart from sanitization; concurrent editing is resolved by the external
// real-time layer, not here.
type Document struct {
	RoomID    string `bson:"_id" json:"room_id"`
	Title     string `bson:"title" json:"title"`
	Icon      string `bson:"icon,omitempty" json:"icon,omitempty"`
	Cover     string `bson:"cover,omitempty" json:"cover,omitempty"`
	Published bool   `bson:"published" json:"published"`
	Content   string `bson:"content,omitempty" json:"content,omitempty"`

	CreatedBy string    `bson:"created_by" json:"created_by"` // creator's subject
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
