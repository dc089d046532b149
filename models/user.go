package models

import (
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-"`
	Role     Role   `json:"role" gorm:"type:varchar(16);index;not null;default:customer"`
	Phone    string `json:"phone"`
	Bio      string `json:"bio"`

	// Derived by the rating aggregator; never written from a request body.
	AverageRating float64 `json:"averageRating" gorm:"not null;default:0"`
	TotalRating   int64   `json:"totalRating" gorm:"not null;default:0"`

	ProvidedServices []ProviderService `json:"services,omitempty" gorm:"foreignKey:ProviderID"`
	WorkingHours     []WorkingHours    `json:"workingHours,omitempty" gorm:"foreignKey:ProviderID"`
	Gallery          []GalleryImage    `json:"gallery,omitempty" gorm:"foreignKey:ProviderID"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

func (u *User) IsProvider() bool {
	return u.Role == RoleProvider
}
