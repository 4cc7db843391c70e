package models

type User struct {
	BaseModel

	Name             string  `gorm:"not null" json:"name"`
	Email            string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string  `gorm:"not null" json:"-"`
	Role             string  `gorm:"not null;index" json:"role"` // "community", "agency", "coordinator"
	OrganizationName *string `json:"organization_name"`
	IsVerified       bool    `gorm:"default:false" json:"is_verified"`
}
