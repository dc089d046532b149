package repository

import (
	"context"
	"fmt"

	"github.com/meinhoongagan/groomly/models"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) WorkingHours(ctx context.Context, providerID uint) ([]models.WorkingHours, error) {
	var hours []models.WorkingHours
	err := r.db.conn(ctx).Where("provider_id = ?", providerID).Order("day_of_week").Find(&hours).Error
	if err != nil {
		return nil, fmt.Errorf("list working hours: %w", err)
	}
	return hours, nil
}

func (r *ProfileRepository) WorkingDay(ctx context.Context, providerID uint, day models.DayOfWeek) (*models.WorkingHours, error) {
	var wh models.WorkingHours
	err := r.db.conn(ctx).Where("provider_id = ? AND day_of_week = ?", providerID, day).First(&wh).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &wh, nil
}

// ReplaceWorkingHours swaps the provider's whole weekly schedule.
func (r *ProfileRepository) ReplaceWorkingHours(ctx context.Context, providerID uint, hours []models.WorkingHours) error {
	return r.db.InTx(ctx, func(ctx context.Context) error {
		if err := r.db.conn(ctx).Unscoped().Where("provider_id = ?", providerID).Delete(&models.WorkingHours{}).Error; err != nil {
			return fmt.Errorf("clear working hours: %w", err)
		}
		if len(hours) == 0 {
			return nil
		}
		for i := range hours {
			hours[i].ProviderID = providerID
		}
		if err := r.db.conn(ctx).Create(&hours).Error; err != nil {
			return fmt.Errorf("insert working hours: %w", err)
		}
		return nil
	})
}

func (r *ProfileRepository) DeleteWorkingDay(ctx context.Context, providerID uint, day models.DayOfWeek) error {
	res := r.db.conn(ctx).Unscoped().
		Where("provider_id = ? AND day_of_week = ?", providerID, day).
		Delete(&models.WorkingHours{})
	if res.Error != nil {
		return fmt.Errorf("delete working day: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) AddImage(ctx context.Context, img *models.GalleryImage) error {
	if err := r.db.conn(ctx).Create(img).Error; err != nil {
		return fmt.Errorf("create gallery image: %w", err)
	}
	return nil
}

// DeleteImage removes an image owned by providerID and returns it so the
// caller can drop the stored asset.
func (r *ProfileRepository) DeleteImage(ctx context.Context, providerID, id uint) (*models.GalleryImage, error) {
	var img models.GalleryImage
	res := r.db.conn(ctx).
		Clauses(clause.Returning{}).
		Where("id = ? AND provider_id = ?", id, providerID).
		Delete(&img)
	if res.Error != nil {
		return nil, fmt.Errorf("delete gallery image: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &img, nil
}
