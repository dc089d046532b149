package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meinhoongagan/groomly/models"
	"gorm.io/gorm"
)

var ErrEmailTaken = errors.New("email already registered")

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.conn(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) ByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.conn(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.conn(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Provider loads a provider account with its public profile.
func (r *UserRepository) Provider(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.conn(ctx).
		Preload("ProvidedServices", "is_available = ?", true).
		Preload("WorkingHours", func(db *gorm.DB) *gorm.DB { return db.Order("day_of_week") }).
		Preload("Gallery", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Where("role = ?", models.RoleProvider).
		First(&user, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// ListProviders pages through providers, best rated first.
func (r *UserRepository) ListProviders(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	var (
		users []models.User
		total int64
	)
	q := r.db.conn(ctx).Model(&models.User{}).Where("role = ?", models.RoleProvider)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count providers: %w", err)
	}
	err := q.Order("average_rating DESC").Order("total_rating DESC").Order("id").
		Offset(offset(page, limit)).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list providers: %w", err)
	}
	return users, total, nil
}

func (r *UserRepository) ProviderIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.conn(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleProvider).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list provider ids: %w", err)
	}
	return ids, nil
}

// UpdateProviderRating is the only writer of the derived rating columns.
func (r *UserRepository) UpdateProviderRating(ctx context.Context, providerID uint, average float64, total int64) error {
	res := r.db.conn(ctx).Model(&models.User{}).
		Where("id = ?", providerID).
		Updates(map[string]any{"average_rating": average, "total_rating": total})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "SQLSTATE 23505")
}
