// internal/app/features/documents/types.go
package documents

import (
	"time"

	"github.com/inkwellhq/inkwell/internal/domain/models"
)

// documentView is the JSON shape of a document in API responses.
type documentView struct {
	RoomID    string    `json:"roomId"`
	Title     string    `json:"title"`
	Icon      string    `json:"icon,omitempty"`
	Cover     string    `json:"cover,omitempty"`
	Published bool      `json:"published"`
	Role      string    `json:"role,omitempty"` // requester's role, when known
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func docResponse(d models.Document, role string) documentView {
	return documentView{
		RoomID:    d.RoomID,
		Title:     d.Title,
		Icon:      d.Icon,
		Cover:     d.Cover,
		Published: d.Published,
		Role:      role,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// memberView is the JSON shape of a room membership in API responses.
type memberView struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func memberResponse(m models.RoomMembership) memberView {
	return memberView{
		UserID:    m.UserID,
		Email:     m.UserEmail,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
}
