package models

type Resource struct {
	BaseModel

	Name       string   `gorm:"not null" json:"name"`
	Type       string   `gorm:"not null" json:"type"`
	Status     string   `gorm:"not null;default:Available;index" json:"status"` // "Available", "Engaged", "Unavailable"
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	AgencyID   uint     `gorm:"not null;index" json:"agency_id"`
	IncidentID *uint    `gorm:"index" json:"incident_id"` // set only while engaged on an incident

	// Relationships
	Agency   User      `gorm:"foreignKey:AgencyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Incident *Incident `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
