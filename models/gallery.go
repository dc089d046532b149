package models

import (
	"time"
)

type GalleryImage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ProviderID uint      `json:"providerId" gorm:"index;not null"`
	ImageURL   string    `json:"imageUrl" gorm:"not null"`
	PublicID   string    `json:"-"`
	Caption    string    `json:"caption"`
	CreatedAt  time.Time `json:"createdAt"`
}
