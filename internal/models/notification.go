package models

import (
	"gorm.io/datatypes"
)

// Notification is addressed to a single user, to every user holding a
// role, or (rarely) to both.
type Notification struct {
	BaseModel

	RecipientUserID *uint          `gorm:"index" json:"recipient_user_id"`
	RecipientRole   *string        `gorm:"index" json:"recipient_role"`
	Type            string         `gorm:"not null" json:"type"` // e.g., "incident_reported", "resource_assigned"
	Title           string         `json:"title"`
	Message         string         `gorm:"not null" json:"message"`
	Data            datatypes.JSON `json:"data"`
	Read            bool           `gorm:"not null;default:false" json:"read"`
}
