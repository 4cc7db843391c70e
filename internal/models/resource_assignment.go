package models

import "time"

// ResourceAssignment is the history of resource-incident links. A row stays
// after release, so it records that a resource has touched the incident.
type ResourceAssignment struct {
	BaseModel

	IncidentID uint       `gorm:"not null;index" json:"incident_id"`
	ResourceID uint       `gorm:"not null;index" json:"resource_id"`
	AgencyID   uint       `gorm:"not null" json:"agency_id"`
	AssignedBy uint       `gorm:"not null" json:"assigned_by"`
	AssignedAt time.Time  `gorm:"not null" json:"assigned_at"`
	ReleasedAt *time.Time `json:"released_at"`

	// Relationships
	Incident Incident `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Resource Resource `gorm:"foreignKey:ResourceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
