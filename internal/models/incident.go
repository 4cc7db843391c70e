package models

type Incident struct {
	BaseModel

	Category    string   `gorm:"not null" json:"category"`
	Severity    string   `gorm:"not null" json:"severity"`                     // "Low", "Medium", "High"
	Status      string   `gorm:"not null;default:pending;index" json:"status"` // "pending", "active", "resolved"
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Description *string  `json:"description"`
	ReportedBy  uint     `gorm:"not null;index" json:"reported_by"`

	// Relationships
	Reporter User `gorm:"foreignKey:ReportedBy;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}
