package models

import (
	"gorm.io/gorm"
)

// ProviderService is a priced, timed offering owned by one provider.
type ProviderService struct {
	gorm.Model
	Name        string  `json:"name" gorm:"not null"`
	ProviderID  uint    `json:"providerId" gorm:"index;not null"`
	Provider    *User   `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
	Price       float64 `json:"price"`
	Duration    int     `json:"duration"` // minutes
	IsAvailable bool    `json:"isAvailable" gorm:"default:true"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}
