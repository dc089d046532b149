package db

import (
	"fmt"

	"github.com/meinhoongagan/groomly/models"
	"gorm.io/gorm"
)

// Migrate runs AutoMigrate for every model. Only called when AUTO_MIGRATE is set.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.ProviderService{},
		&models.Appointment{},
		&models.Review{},
		&models.WorkingHours{},
		&models.GalleryImage{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
