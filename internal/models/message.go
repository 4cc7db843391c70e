package models

type Message struct {
	BaseModel

	SenderID   uint   `gorm:"not null;index" json:"sender_id"`
	ReceiverID uint   `gorm:"not null;index" json:"receiver_id"`
	IncidentID *uint  `gorm:"index" json:"incident_id"`
	Body       string `gorm:"column:message;not null" json:"message"`
	IsRead     bool   `gorm:"not null;default:false" json:"is_read"`

	// Relationships
	Sender   User      `gorm:"foreignKey:SenderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Receiver User      `gorm:"foreignKey:ReceiverID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Incident *Incident `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
