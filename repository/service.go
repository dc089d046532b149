package repository

import (
	"context"
	"fmt"

	"github.com/meinhoongagan/groomly/models"
)

type ServiceRepository struct {
	db *DB
}

func NewServiceRepository(db *DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Create(ctx context.Context, svc *models.ProviderService) error {
	if err := r.db.conn(ctx).Create(svc).Error; err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

func (r *ServiceRepository) ByID(ctx context.Context, id uint) (*models.ProviderService, error) {
	var svc models.ProviderService
	if err := r.db.conn(ctx).First(&svc, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &svc, nil
}

func (r *ServiceRepository) ByProvider(ctx context.Context, providerID uint) ([]models.ProviderService, error) {
	var services []models.ProviderService
	err := r.db.conn(ctx).Where("provider_id = ?", providerID).Order("id").Find(&services).Error
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// FindOwned returns the services among ids that belong to providerID.
func (r *ServiceRepository) FindOwned(ctx context.Context, providerID uint, ids []uint) ([]models.ProviderService, error) {
	var services []models.ProviderService
	err := r.db.conn(ctx).
		Where("id IN ? AND provider_id = ?", ids, providerID).
		Find(&services).Error
	if err != nil {
		return nil, fmt.Errorf("find services: %w", err)
	}
	return services, nil
}

func (r *ServiceRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.conn(ctx).Model(&models.ProviderService{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update service: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ServiceRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.conn(ctx).Delete(&models.ProviderService{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete service: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
