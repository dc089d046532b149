package models

import (
	"gorm.io/gorm"
)

// Review is a standalone provider rating, not tied to an appointment.
type Review struct {
	gorm.Model
	CustomerID uint    `json:"customerId" gorm:"index;not null"`
	Customer   *User   `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	ProviderID uint    `json:"providerId" gorm:"index;not null"`
	Provider   *User   `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
	Rating     float64 `json:"rating" gorm:"type:float8;not null"`
	ReviewText string  `json:"reviewText"`
}

// BeforeSave rejects scores outside [0,5] instead of clamping them.
func (r *Review) BeforeSave(tx *gorm.DB) error {
	return ValidScore(r.Rating)
}
